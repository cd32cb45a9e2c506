package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripwise/tripchat/pkg/llm"
	"github.com/tripwise/tripchat/pkg/storage"
)

// canned replies with a fixed LLM response regardless of the prompt.
type canned struct {
	text string
}

func (c *canned) Stream(context.Context, string, map[string]string) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk, 1)
	ch <- llm.Chunk{Content: c.text}
	close(ch)
	return ch, nil
}

func testStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), "file:"+t.TempDir()+"/bills.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestHandleRecordsBills(t *testing.T) {
	store := testStore(t)
	gw := &canned{text: `[
		{"topic": "dinner", "payer": "Alex", "participants": ["Alex", "Blair"], "amount": 84.5, "currency": "USD"},
		{"topic": "taxi", "payer": "Blair", "participants": ["Alex", "Blair"], "amount": 20, "currency": "USD"}
	]`}
	a := NewAssistant(gw, store)

	res, err := a.Handle(context.Background(), "dinner was 84.50 on Alex, taxi 20 on Blair")
	require.NoError(t, err)
	require.Len(t, res.BillIDs, 2)
	assert.Contains(t, res.Reply, "Recorded 2 bill(s)")
	assert.Contains(t, res.Reply, "dinner")

	bills, _, err := store.ListBills(context.Background(), storage.BillQuery{})
	require.NoError(t, err)
	assert.Len(t, bills, 2)
}

func TestHandleSkipsInvalidRecords(t *testing.T) {
	store := testStore(t)
	gw := &canned{text: `[
		{"topic": "coffee", "payer": "Alex", "amount": 6},
		{"topic": "", "amount": 10},
		{"topic": "snacks", "amount": 0}
	]`}
	a := NewAssistant(gw, store)

	res, err := a.Handle(context.Background(), "coffee and stuff")
	require.NoError(t, err)
	assert.Len(t, res.BillIDs, 1)
	assert.Contains(t, res.Reply, "Recorded 1 bill(s)")
}

func TestHandleSingleObject(t *testing.T) {
	store := testStore(t)
	gw := &canned{text: "Sure! Here it is:\n" + `{"topic": "hotel", "payer": "Casey", "amount": 300, "currency": "EUR"}`}
	a := NewAssistant(gw, store)

	res, err := a.Handle(context.Background(), "Casey paid 300 euros for the hotel")
	require.NoError(t, err)
	require.Len(t, res.BillIDs, 1)

	bill, err := store.GetBill(context.Background(), res.BillIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "EUR", bill.Currency)
}

func TestHandleQueryByID(t *testing.T) {
	store := testStore(t)
	seed := &storage.Bill{Topic: "dinner", Payer: "Alex", Amount: 50}
	require.NoError(t, store.SaveBill(context.Background(), seed))

	gw := &canned{text: `{"query": true, "type": "id", "value": "1"}`}
	a := NewAssistant(gw, store)

	res, err := a.Handle(context.Background(), "look up bill 1")
	require.NoError(t, err)
	assert.Empty(t, res.BillIDs)
	assert.Contains(t, res.Reply, "dinner")
}

func TestHandleQueryByPayer(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveBill(context.Background(), &storage.Bill{Topic: "dinner", Payer: "Alex", Amount: 50}))
	require.NoError(t, store.SaveBill(context.Background(), &storage.Bill{Topic: "taxi", Payer: "Blair", Amount: 20}))

	gw := &canned{text: `{"query": true, "type": "payer", "value": "alex"}`}
	a := NewAssistant(gw, store)

	res, err := a.Handle(context.Background(), "what did Alex pay for")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "dinner")
	assert.NotContains(t, res.Reply, "taxi")
}

func TestHandleQueryByParticipant(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveBill(context.Background(), &storage.Bill{
		Topic: "dinner", Payer: "Alex", Participants: []string{"Alex", "Casey"}, Amount: 50,
	}))

	gw := &canned{text: `{"query": true, "type": "participant", "value": "Casey"}`}
	a := NewAssistant(gw, store)

	res, err := a.Handle(context.Background(), "bills Casey was part of")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "dinner")
}

func TestHandleQuerySubstringMatch(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SaveBill(context.Background(), &storage.Bill{
		Topic: "dinner", Payer: "Alexandra", Participants: []string{"Alexandra", "Blair"}, Amount: 50,
	}))

	// Payer and participant lookups both match loosely by substring.
	a := NewAssistant(&canned{text: `{"query": true, "type": "payer", "value": "alex"}`}, store)
	res, err := a.Handle(context.Background(), "what did alex pay for")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "dinner")

	a = NewAssistant(&canned{text: `{"query": true, "type": "participant", "value": "blai"}`}, store)
	res, err = a.Handle(context.Background(), "bills with blai")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "dinner")
}

func TestHandleUnparseableOutput(t *testing.T) {
	store := testStore(t)
	gw := &canned{text: "I cannot help with that."}
	a := NewAssistant(gw, store)

	res, err := a.Handle(context.Background(), "gibberish")
	require.NoError(t, err)
	assert.Equal(t, "I cannot help with that.", res.Reply)
	assert.Empty(t, res.BillIDs)
}

func TestHandleEmptyArray(t *testing.T) {
	store := testStore(t)
	gw := &canned{text: `[]`}
	a := NewAssistant(gw, store)

	res, err := a.Handle(context.Background(), "nothing here")
	require.NoError(t, err)
	assert.Contains(t, res.Reply, "could not find any expense")
}
