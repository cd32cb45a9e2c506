package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), "file:"+t.TempDir()+"/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBillRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bill := &Bill{
		Topic:        "dinner",
		Payer:        "Alex",
		Participants: []string{"Alex", "Blair"},
		Amount:       84.50,
		Currency:     "USD",
		Note:         "split evenly",
		UserInput:    "Alex paid 84.50 for dinner with Blair",
	}
	require.NoError(t, store.SaveBill(ctx, bill))
	require.NotZero(t, bill.ID)
	assert.False(t, bill.CreatedAt.IsZero())

	got, err := store.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "dinner", got.Topic)
	assert.Equal(t, []string{"Alex", "Blair"}, got.Participants)
	assert.Equal(t, 84.50, got.Amount)
}

func TestBillDefaults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	bill := &Bill{Topic: "taxi", Amount: 12}
	require.NoError(t, store.SaveBill(ctx, bill))

	got, err := store.GetBill(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency)
	assert.Empty(t, got.Participants)
}

func TestGetBillNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetBill(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBillsNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := &Bill{Topic: "breakfast", Amount: 10}
	second := &Bill{Topic: "lunch", Amount: 20}
	require.NoError(t, store.SaveBill(ctx, first))
	require.NoError(t, store.SaveBill(ctx, second))

	bills, total, err := store.ListBills(ctx, BillQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, bills, 2)
	assert.Equal(t, "lunch", bills[0].Topic)
	assert.Equal(t, "breakfast", bills[1].Topic)
}

func TestListBillsPagination(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, topic := range []string{"one", "two", "three", "four", "five"} {
		require.NoError(t, store.SaveBill(ctx, &Bill{Topic: topic, Amount: 10}))
	}

	page1, total, err := store.ListBills(ctx, BillQuery{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "five", page1[0].Topic)
	assert.Equal(t, "four", page1[1].Topic)

	page3, total, err := store.ListBills(ctx, BillQuery{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page3, 1)
	assert.Equal(t, "one", page3[0].Topic)

	beyond, _, err := store.ListBills(ctx, BillQuery{Page: 4, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestListBillsPayerFilter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBill(ctx, &Bill{Topic: "dinner", Payer: "Alexandra", Amount: 50}))
	require.NoError(t, store.SaveBill(ctx, &Bill{Topic: "taxi", Payer: "Blair", Amount: 20}))

	// Substring match, case-insensitive.
	bills, total, err := store.ListBills(ctx, BillQuery{Payer: "alex"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, bills, 1)
	assert.Equal(t, "dinner", bills[0].Topic)

	none, total, err := store.ListBills(ctx, BillQuery{Payer: "devon"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestTravelPlanRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	budget := 1500.0
	days := 3
	plan := &TravelPlan{
		SessionID:      "shared-travel-session",
		RoutePlan:      "Day 1: Louvre\nDay 2: Versailles\nDay 3: Montmartre",
		RestaurantPlan: "Day 1: Le Bistro (~$40)",
		Budget:         &budget,
		Currency:       "USD",
		Destination:    "Paris",
		Days:           &days,
		Participants:   []string{"Alex", "Blair", "Casey"},
	}
	require.NoError(t, store.SaveTravelPlan(ctx, plan))
	require.NotZero(t, plan.ID)

	got, err := store.GetTravelPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.RoutePlan, got.RoutePlan)
	assert.Equal(t, plan.RestaurantPlan, got.RestaurantPlan)
	require.NotNil(t, got.Budget)
	assert.Equal(t, 1500.0, *got.Budget)
	require.NotNil(t, got.Days)
	assert.Equal(t, 3, *got.Days)
	assert.Equal(t, []string{"Alex", "Blair", "Casey"}, got.Participants)
}

func TestTravelPlanNullableFields(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	plan := &TravelPlan{SessionID: "s", RoutePlan: "somewhere"}
	require.NoError(t, store.SaveTravelPlan(ctx, plan))

	got, err := store.GetTravelPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Budget)
	assert.Nil(t, got.Days)
}

func TestListTravelPlansBySession(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveTravelPlan(ctx, &TravelPlan{SessionID: "room-1", RoutePlan: "Paris"}))
	require.NoError(t, store.SaveTravelPlan(ctx, &TravelPlan{SessionID: "room-2", RoutePlan: "Tokyo"}))
	require.NoError(t, store.SaveTravelPlan(ctx, &TravelPlan{SessionID: "room-1", RoutePlan: "Rome"}))

	all, err := store.ListTravelPlans(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	room1, err := store.ListTravelPlans(ctx, "room-1")
	require.NoError(t, err)
	require.Len(t, room1, 2)
	assert.Equal(t, "Rome", room1[0].RoutePlan)
	assert.Equal(t, "Paris", room1[1].RoutePlan)
}

func TestGetTravelPlanNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetTravelPlan(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
