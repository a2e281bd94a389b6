package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"tripledger-backend/config"
	"tripledger-backend/database"
	"tripledger-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// setupHandlerTest points the handlers at an in-memory database.
func setupHandlerTest(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Trip{},
		&models.Participant{},
		&models.Expense{},
		&models.ExpenseSplit{},
		&models.ExpenseItem{},
		&models.ItemClaim{},
		&models.Settlement{},
		&models.Activity{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.DB = db
	config.AppConfig = &config.Config{SettlementCurrency: "USD"}
}

func expenseRouter() *gin.Engine {
	r := gin.New()
	r.POST("/api/trips/:id/expenses", CreateExpense)
	r.PUT("/api/expenses/:id", UpdateExpense)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// Changing the split type away from itemized must retire the line items and
// their claims, leaving only the new split rows behind.
func TestUpdateExpenseClearsItemsOnSplitTypeChange(t *testing.T) {
	setupHandlerTest(t)

	trip := models.Trip{Name: "Bangkok"}
	if err := database.DB.Create(&trip).Error; err != nil {
		t.Fatalf("create trip: %v", err)
	}
	alice := models.Participant{TripID: trip.ID, Name: "Alice"}
	bob := models.Participant{TripID: trip.ID, Name: "Bob"}
	database.DB.Create(&alice)
	database.DB.Create(&bob)

	r := expenseRouter()

	w := doJSON(t, r, http.MethodPost, "/api/trips/"+trip.ID.String()+"/expenses", models.CreateExpenseRequest{
		PaidBy:      alice.ID.String(),
		Description: "Dinner",
		Amount:      110,
		Currency:    "USD",
		SplitType:   "itemized",
		Items: []models.ItemInput{
			{Name: "Beer", Quantity: 4, UnitPrice: 5},
			{Name: "Pad Thai", Quantity: 2, UnitPrice: 40},
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body: %s", w.Code, w.Body.String())
	}

	var expense models.Expense
	if err := database.DB.Where("trip_id = ?", trip.ID).First(&expense).Error; err != nil {
		t.Fatalf("expense not persisted: %v", err)
	}

	var items []models.ExpenseItem
	database.DB.Where("expense_id = ?", expense.ID).Find(&items)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if err := database.DB.Create(&models.ItemClaim{ItemID: items[0].ID, ParticipantID: bob.ID, Quantity: 2}).Error; err != nil {
		t.Fatalf("create claim: %v", err)
	}

	w = doJSON(t, r, http.MethodPut, "/api/expenses/"+expense.ID.String(), models.UpdateExpenseRequest{
		SplitType: "equal",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body: %s", w.Code, w.Body.String())
	}

	var itemCount, claimCount, splitCount int64
	database.DB.Model(&models.ExpenseItem{}).Where("expense_id = ?", expense.ID).Count(&itemCount)
	database.DB.Model(&models.ItemClaim{}).Where("item_id = ?", items[0].ID).Count(&claimCount)
	database.DB.Model(&models.ExpenseSplit{}).Where("expense_id = ?", expense.ID).Count(&splitCount)

	if itemCount != 0 || claimCount != 0 {
		t.Errorf("items/claims left behind = %d/%d, want 0/0", itemCount, claimCount)
	}
	if splitCount != 2 {
		t.Errorf("split rows = %d, want one per participant", splitCount)
	}
}
