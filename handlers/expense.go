package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"
	"tripledger-backend/config"
	"tripledger-backend/database"
	"tripledger-backend/fx"
	"tripledger-backend/ledger"
	"tripledger-backend/models"
	"tripledger-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /api/trips/:id/expenses
func CreateExpense(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	if !tripExists(tripID) {
		utils.NotFound(c, "Trip not found")
		return
	}

	var req models.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	paidBy, err := uuid.Parse(req.PaidBy)
	if err != nil || !isParticipant(tripID, paidBy) {
		utils.BadRequest(c, "paid_by must be a participant of this trip")
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = config.AppConfig.SettlementCurrency
	}
	if !models.IsSupportedCurrency(currency) {
		utils.BadRequest(c, fmt.Sprintf("unsupported currency: %s", currency))
		return
	}

	paymentDate := time.Now()
	if req.PaymentDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.PaymentDate); err == nil {
			paymentDate = parsed
		}
	}

	expense := models.Expense{
		TripID:      tripID,
		PaidBy:      paidBy,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    currency,
		Category:    req.Category,
		SplitType:   req.SplitType,
		Notes:       req.Notes,
		PaymentDate: paymentDate,
	}

	conv, warning := applyConversion(c, &expense)

	// Compute splits before persisting anything, so validation failures
	// leave no partial expense behind. Itemized expenses start with no
	// splits: claims arrive later.
	var splits []ledger.Split
	if req.SplitType == "itemized" {
		if len(req.Items) == 0 {
			utils.BadRequest(c, "items required for itemized split type")
			return
		}
	} else {
		policy, err := buildSplitPolicy(req.SplitType, req.Splits, tripID)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		splits, err = ledger.ComputeSplits(expense.Amount, policy, tripParticipantIDs(tripID), conv)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
	}

	if err := database.DB.Create(&expense).Error; err != nil {
		utils.InternalError(c, "Failed to create expense")
		return
	}

	for _, item := range req.Items {
		database.DB.Create(&models.ExpenseItem{
			ExpenseID: expense.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	// Expense and splits are one logical unit, but not one atomic write:
	// if a split write fails the expense is kept and the partial state is
	// reported so the client can retry the split step.
	if err := persistSplits(expense.ID, splits); err != nil {
		log.Println("⚠️  Split write failed after expense write:", err)
		utils.PartialSuccess(c, "Expense saved but splits could not be written, retry the split step", buildExpenseResponse(expense.ID))
		return
	}

	logActivity(tripID, paidBy, "expense_added", expense.ID,
		fmt.Sprintf("%s added \"%s\" (%s %.2f)", participantName(paidBy), expense.Description, expense.Currency, expense.Amount))

	utils.SuccessResponse(c, http.StatusCreated, warning, buildExpenseResponse(expense.ID))
}

// GET /api/trips/:id/expenses
func GetTripExpenses(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid trip ID")
		return
	}

	var pagination utils.PaginationQuery
	c.ShouldBindQuery(&pagination)

	var expenses []models.Expense
	database.DB.Where("trip_id = ?", tripID).
		Order("payment_date DESC, created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit).
		Find(&expenses)

	var responses []models.ExpenseResponse
	for _, e := range expenses {
		responses = append(responses, buildExpenseResponse(e.ID))
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/expenses/:id
func GetExpense(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	response := buildExpenseResponse(expenseID)
	if response.ID == uuid.Nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", response)
}

// PUT /api/expenses/:id
func UpdateExpense(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	wasItemized := expense.SplitType == "itemized"

	if req.Description != "" {
		expense.Description = req.Description
	}
	if req.Amount > 0 {
		expense.Amount = req.Amount
	}
	if req.Currency != "" {
		if !models.IsSupportedCurrency(req.Currency) {
			utils.BadRequest(c, fmt.Sprintf("unsupported currency: %s", req.Currency))
			return
		}
		expense.Currency = req.Currency
	}
	if req.Category != "" {
		expense.Category = req.Category
	}
	if req.SplitType != "" {
		expense.SplitType = req.SplitType
	}
	if req.Notes != "" {
		expense.Notes = req.Notes
	}
	if req.PaymentDate != "" {
		if parsed, err := time.Parse("2006-01-02", req.PaymentDate); err == nil {
			expense.PaymentDate = parsed
		}
	}

	// Frozen FX fields are re-derived on every edit, never reused.
	conv, warning := applyConversion(c, &expense)

	var splits []ledger.Split
	if expense.SplitType == "itemized" {
		if len(req.Items) > 0 {
			replaceItems(expense.ID, req.Items)
		}
	} else {
		// A split type change away from itemized retires the line items
		// and their claims; only the new split rows remain.
		if wasItemized {
			clearItems(expense.ID)
		}
		inputs := req.Splits
		if len(inputs) == 0 {
			inputs = existingSplitInputs(expense.ID)
		}
		policy, err := buildSplitPolicy(expense.SplitType, inputs, expense.TripID)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		splits, err = ledger.ComputeSplits(expense.Amount, policy, tripParticipantIDs(expense.TripID), conv)
		if err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
	}

	if err := database.DB.Save(&expense).Error; err != nil {
		utils.InternalError(c, "Failed to update expense")
		return
	}

	database.DB.Where("expense_id = ?", expenseID).Delete(&models.ExpenseSplit{})
	if err := persistSplits(expense.ID, splits); err != nil {
		log.Println("⚠️  Split write failed after expense update:", err)
		utils.PartialSuccess(c, "Expense updated but splits could not be written, retry the split step", buildExpenseResponse(expense.ID))
		return
	}

	logActivity(expense.TripID, expense.PaidBy, "expense_updated", expense.ID,
		fmt.Sprintf("\"%s\" was updated", expense.Description))

	utils.SuccessResponse(c, http.StatusOK, warning, buildExpenseResponse(expense.ID))
}

// DELETE /api/expenses/:id
func DeleteExpense(c *gin.Context) {
	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "Invalid expense ID")
		return
	}

	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		utils.NotFound(c, "Expense not found")
		return
	}

	logActivity(expense.TripID, expense.PaidBy, "expense_deleted", uuid.Nil,
		fmt.Sprintf("\"%s\" (%s %.2f) was deleted", expense.Description, expense.Currency, expense.Amount))

	clearItems(expenseID)
	database.DB.Where("expense_id = ?", expenseID).Delete(&models.ExpenseSplit{})
	database.DB.Delete(&expense)

	utils.SuccessResponse(c, http.StatusOK, "Expense deleted", nil)
}

// applyConversion freezes the settlement-currency view on the expense: the
// rate, the converted amount, the rate date and its source. On resolver
// failure the expense degrades to a flagged 1:1 rate instead of blocking
// creation; the returned warning is surfaced to the user.
func applyConversion(c *gin.Context, expense *models.Expense) (*ledger.Conversion, string) {
	settlement := config.AppConfig.SettlementCurrency

	freeze := func(rate float64, date time.Time, source string) *ledger.Conversion {
		amount := utils.RoundToTwo(expense.Amount * rate)
		expense.FXRate = &rate
		expense.SettlementAmount = &amount
		expense.FXRateDate = &date
		expense.FXRateSource = source
		return &ledger.Conversion{Rate: rate, Amount: amount}
	}

	if expense.Currency == settlement {
		return freeze(1, expense.PaymentDate, string(fx.SourceIdentity)), ""
	}

	resolved, err := FX.Resolve(c.Request.Context(), expense.PaymentDate, expense.Currency, settlement)
	if err != nil {
		log.Println("⚠️  FX conversion failed, falling back to 1:1 rate:", err)
		return freeze(1, expense.PaymentDate, "fallback"),
			"FX rate unavailable, settlement amount uses an approximate 1:1 rate"
	}

	return freeze(resolved.Rate, resolved.Date, string(resolved.Source)), ""
}

func buildSplitPolicy(splitType string, inputs []models.SplitInput, tripID uuid.UUID) (ledger.SplitPolicy, error) {
	parse := func(s string) (uuid.UUID, error) {
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid participant ID: %s", s)
		}
		if !isParticipant(tripID, id) {
			return uuid.Nil, fmt.Errorf("participant %s is not on this trip", s)
		}
		return id, nil
	}

	switch splitType {
	case "equal":
		return ledger.EqualSplit{}, nil

	case "custom":
		var shares []ledger.CustomShare
		for _, in := range inputs {
			id, err := parse(in.ParticipantID)
			if err != nil {
				return nil, err
			}
			shares = append(shares, ledger.CustomShare{ParticipantID: id, Amount: in.Amount})
		}
		return ledger.CustomSplit{Shares: shares}, nil

	case "percentage":
		var shares []ledger.PercentageShare
		for _, in := range inputs {
			id, err := parse(in.ParticipantID)
			if err != nil {
				return nil, err
			}
			shares = append(shares, ledger.PercentageShare{ParticipantID: id, Percent: in.Percentage})
		}
		return ledger.PercentageSplit{Shares: shares}, nil

	default:
		return nil, fmt.Errorf("invalid split type: %s", splitType)
	}
}

func tripParticipantIDs(tripID uuid.UUID) []uuid.UUID {
	var participants []models.Participant
	database.DB.Where("trip_id = ?", tripID).Order("joined_at ASC").Find(&participants)

	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		ids = append(ids, p.ID)
	}
	return ids
}

func persistSplits(expenseID uuid.UUID, splits []ledger.Split) error {
	for _, s := range splits {
		row := models.ExpenseSplit{
			ExpenseID:        expenseID,
			ParticipantID:    s.ParticipantID,
			Amount:           s.Amount,
			Percentage:       s.Percentage,
			SettlementAmount: s.SettlementAmount,
		}
		if err := database.DB.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// existingSplitInputs rebuilds split inputs from persisted rows so an edit
// that only changes amount or currency can recompute without resubmitting
// the share list.
func existingSplitInputs(expenseID uuid.UUID) []models.SplitInput {
	var rows []models.ExpenseSplit
	database.DB.Where("expense_id = ?", expenseID).Find(&rows)

	var inputs []models.SplitInput
	for _, r := range rows {
		in := models.SplitInput{ParticipantID: r.ParticipantID.String(), Amount: r.Amount}
		if r.Percentage != nil {
			in.Percentage = *r.Percentage
		}
		inputs = append(inputs, in)
	}
	return inputs
}

// clearItems removes an expense's line items and their claims.
func clearItems(expenseID uuid.UUID) {
	var items []models.ExpenseItem
	database.DB.Where("expense_id = ?", expenseID).Find(&items)
	for _, item := range items {
		database.DB.Where("item_id = ?", item.ID).Delete(&models.ItemClaim{})
	}
	database.DB.Where("expense_id = ?", expenseID).Delete(&models.ExpenseItem{})
}

func replaceItems(expenseID uuid.UUID, inputs []models.ItemInput) {
	clearItems(expenseID)

	for _, in := range inputs {
		database.DB.Create(&models.ExpenseItem{
			ExpenseID: expenseID,
			Name:      in.Name,
			Quantity:  in.Quantity,
			UnitPrice: in.UnitPrice,
		})
	}
}

func participantName(id uuid.UUID) string {
	var p models.Participant
	database.DB.First(&p, id)
	return p.Name
}

func logActivity(tripID, participantID uuid.UUID, activityType string, referenceID uuid.UUID, description string) {
	database.DB.Create(&models.Activity{
		TripID:        tripID,
		ParticipantID: participantID,
		Type:          activityType,
		ReferenceID:   referenceID,
		Description:   description,
	})
}

// Build expense response with payer name, split details, items and claims
func buildExpenseResponse(expenseID uuid.UUID) models.ExpenseResponse {
	var expense models.Expense
	if err := database.DB.First(&expense, expenseID).Error; err != nil {
		return models.ExpenseResponse{}
	}

	response := models.ExpenseResponse{
		ID:               expense.ID,
		TripID:           expense.TripID,
		PaidBy:           expense.PaidBy,
		PayerName:        participantName(expense.PaidBy),
		Description:      expense.Description,
		Amount:           expense.Amount,
		Currency:         expense.Currency,
		Category:         expense.Category,
		SplitType:        expense.SplitType,
		Notes:            expense.Notes,
		PaymentDate:      expense.PaymentDate,
		SettlementAmount: expense.SettlementAmount,
		FXRate:           expense.FXRate,
		FXRateDate:       expense.FXRateDate,
		FXRateSource:     expense.FXRateSource,
		CreatedAt:        expense.CreatedAt,
	}

	if expense.SplitType == "itemized" {
		items, _ := loadItemized(expenseID)
		for _, item := range items {
			itemResp := models.ItemResponse{
				ID:        item.ID,
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}
			for _, claim := range item.Claims {
				itemResp.Claims = append(itemResp.Claims, models.ClaimResponse{
					ID:              claim.ID,
					ParticipantID:   claim.ParticipantID,
					ParticipantName: participantName(claim.ParticipantID),
					Quantity:        claim.Quantity,
				})
			}
			response.Items = append(response.Items, itemResp)
		}

		lineItems, lineClaims := itemizedInputs(items)
		progress := ledger.AllocationProgress(lineItems, lineClaims)
		response.AllocationProgress = &progress

		var conv *ledger.Conversion
		if expense.FXRate != nil && expense.SettlementAmount != nil {
			conv = &ledger.Conversion{Rate: *expense.FXRate, Amount: *expense.SettlementAmount}
		}
		shares, err := ledger.ComputeSplits(expense.Amount, ledger.ItemizedSplit{Items: lineItems, Claims: lineClaims}, nil, conv)
		if err == nil {
			for _, s := range shares {
				response.Splits = append(response.Splits, models.SplitResponse{
					ParticipantID:    s.ParticipantID,
					ParticipantName:  participantName(s.ParticipantID),
					Amount:           s.Amount,
					SettlementAmount: s.SettlementAmount,
				})
			}
		}
		return response
	}

	var dbSplits []models.ExpenseSplit
	database.DB.Where("expense_id = ?", expenseID).Find(&dbSplits)
	for _, s := range dbSplits {
		response.Splits = append(response.Splits, models.SplitResponse{
			ParticipantID:    s.ParticipantID,
			ParticipantName:  participantName(s.ParticipantID),
			Amount:           s.Amount,
			Percentage:       s.Percentage,
			SettlementAmount: s.SettlementAmount,
		})
	}

	return response
}

func loadItemized(expenseID uuid.UUID) ([]models.ExpenseItem, []models.ItemClaim) {
	var items []models.ExpenseItem
	database.DB.Where("expense_id = ?", expenseID).Preload("Claims").Order("created_at ASC").Find(&items)

	var claims []models.ItemClaim
	for _, item := range items {
		claims = append(claims, item.Claims...)
	}
	return items, claims
}

func itemizedInputs(items []models.ExpenseItem) ([]ledger.LineItem, []ledger.Claim) {
	var lineItems []ledger.LineItem
	var claims []ledger.Claim
	for _, item := range items {
		lineItems = append(lineItems, ledger.LineItem{ID: item.ID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
		for _, claim := range item.Claims {
			claims = append(claims, ledger.Claim{ItemID: item.ID, ParticipantID: claim.ParticipantID, Quantity: claim.Quantity})
		}
	}
	return lineItems, claims
}
