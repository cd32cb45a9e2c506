// Package billing is the bill-assistant path: it turns a natural-language
// expense description into persisted bill records, and answers bill
// queries. It shares the router with the travel path but is otherwise
// independent of the planning session.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tripwise/tripchat/pkg/jsonx"
	"github.com/tripwise/tripchat/pkg/llm"
	"github.com/tripwise/tripchat/pkg/prompt"
	"github.com/tripwise/tripchat/pkg/storage"
)

// Result is the outcome of one bill-assistant turn.
type Result struct {
	Reply   string
	BillIDs []int64
}

// billRecord is the extraction contract of the bill prompt.
type billRecord struct {
	Topic        string   `json:"topic"`
	Payer        string   `json:"payer"`
	Participants []string `json:"participants"`
	Amount       float64  `json:"amount"`
	Currency     string   `json:"currency"`
	Note         string   `json:"note"`
}

// billQuery is the query contract of the bill prompt.
type billQuery struct {
	Query bool   `json:"query"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Assistant runs the bill extraction prompt and persists the results.
type Assistant struct {
	gateway llm.Gateway
	store   *storage.Store
}

// NewAssistant builds a bill assistant over the given gateway and store.
func NewAssistant(gateway llm.Gateway, store *storage.Store) *Assistant {
	return &Assistant{gateway: gateway, store: store}
}

// Handle runs one bill-assistant turn: collect the LLM output, then either
// answer a query or record the extracted bills. Invalid records are skipped;
// the remaining ones still persist.
func (a *Assistant) Handle(ctx context.Context, userInput string) (Result, error) {
	text, err := llm.Collect(ctx, a.gateway, prompt.Bill, map[string]string{
		"user_input": userInput,
	})
	if err != nil {
		return Result{}, fmt.Errorf("bill extraction failed: %w", err)
	}

	// The record contract is a top-level array; try that before the object
	// scan so a multi-expense payload is not truncated to its first element.
	// An array that yields no records (e.g. a nested field array) falls
	// through to the object scan.
	if raw, ok := jsonx.FirstArray(text); ok {
		if records := parseRecords(raw); len(records) > 0 {
			return a.record(ctx, userInput, records)
		}
	}

	raw, ok := jsonx.First(text)
	if !ok {
		// Nothing structured came back; relay the model's text as-is.
		return Result{Reply: strings.TrimSpace(text)}, nil
	}

	var query billQuery
	if err := json.Unmarshal(raw, &query); err == nil && query.Query {
		return a.runQuery(ctx, query)
	}

	records := parseRecords(raw)
	if len(records) == 0 {
		return Result{Reply: "I could not find any expense to record in that message."}, nil
	}
	return a.record(ctx, userInput, records)
}

// parseRecords accepts either an array of records or a single object.
func parseRecords(raw json.RawMessage) []billRecord {
	var records []billRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return records
	}
	var single billRecord
	if err := json.Unmarshal(raw, &single); err == nil && single.Topic != "" {
		return []billRecord{single}
	}
	return nil
}

func (a *Assistant) record(ctx context.Context, userInput string, records []billRecord) (Result, error) {
	var saved []storage.Bill
	var ids []int64
	for _, rec := range records {
		if rec.Topic == "" || rec.Amount <= 0 {
			slog.Warn("Skipping invalid bill record", "topic", rec.Topic, "amount", rec.Amount)
			continue
		}
		bill := &storage.Bill{
			Topic:        rec.Topic,
			Payer:        rec.Payer,
			Participants: rec.Participants,
			Amount:       rec.Amount,
			Currency:     rec.Currency,
			Note:         rec.Note,
			UserInput:    userInput,
		}
		if err := a.store.SaveBill(ctx, bill); err != nil {
			slog.Error("Failed to save bill", "topic", rec.Topic, "error", err)
			continue
		}
		saved = append(saved, *bill)
		ids = append(ids, bill.ID)
	}

	if len(saved) == 0 {
		return Result{Reply: "I could not record any of those expenses."}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Recorded %d bill(s):\n", len(saved))
	for _, bill := range saved {
		b.WriteString(formatBill(bill))
	}
	return Result{Reply: b.String(), BillIDs: ids}, nil
}

func (a *Assistant) runQuery(ctx context.Context, q billQuery) (Result, error) {
	switch q.Type {
	case "id":
		id, err := strconv.ParseInt(strings.TrimSpace(q.Value), 10, 64)
		if err != nil {
			return Result{Reply: fmt.Sprintf("%q is not a bill id.", q.Value)}, nil
		}
		bill, err := a.store.GetBill(ctx, id)
		if err == storage.ErrNotFound {
			return Result{Reply: fmt.Sprintf("No bill with id %d.", id)}, nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("bill lookup failed: %w", err)
		}
		return Result{Reply: "Found it:\n" + formatBill(bill)}, nil

	case "payer":
		matched, _, err := a.store.ListBills(ctx, storage.BillQuery{Payer: q.Value})
		if err != nil {
			return Result{}, fmt.Errorf("bill listing failed: %w", err)
		}
		return queryReply(matched, q), nil

	case "participant":
		bills, _, err := a.store.ListBills(ctx, storage.BillQuery{})
		if err != nil {
			return Result{}, fmt.Errorf("bill listing failed: %w", err)
		}
		return queryReply(filterByParticipant(bills, q.Value), q), nil

	default:
		return Result{Reply: "I did not understand that bill query."}, nil
	}
}

func queryReply(matched []storage.Bill, q billQuery) Result {
	if len(matched) == 0 {
		return Result{Reply: fmt.Sprintf("No bills matching %s %q.", q.Type, q.Value)}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d bill(s):\n", len(matched))
	for _, bill := range matched {
		b.WriteString(formatBill(bill))
	}
	return Result{Reply: b.String()}
}

// filterByParticipant matches by case-insensitive substring, so "alex"
// finds bills involving "Alexandra".
func filterByParticipant(bills []storage.Bill, value string) []storage.Bill {
	value = strings.ToLower(strings.TrimSpace(value))
	var matched []storage.Bill
	for _, bill := range bills {
		for _, p := range bill.Participants {
			if strings.Contains(strings.ToLower(p), value) {
				matched = append(matched, bill)
				break
			}
		}
	}
	return matched
}

func formatBill(b storage.Bill) string {
	line := fmt.Sprintf("- #%d %s: %.2f %s, paid by %s", b.ID, b.Topic, b.Amount, b.Currency, b.Payer)
	if len(b.Participants) > 0 {
		line += ", with " + strings.Join(b.Participants, ", ")
	}
	if b.Note != "" {
		line += " (" + b.Note + ")"
	}
	return line + "\n"
}
