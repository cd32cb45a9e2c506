// Package orchestrator is the planning state machine. It routes each
// utterance, drives the planner stages over the LLM gateway, and runs the
// two consent-vote protocols that gate modifications and finalization.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/tripwise/tripchat/pkg/billing"
	"github.com/tripwise/tripchat/pkg/chatroom"
	"github.com/tripwise/tripchat/pkg/llm"
	"github.com/tripwise/tripchat/pkg/prompt"
	"github.com/tripwise/tripchat/pkg/session"
	"github.com/tripwise/tripchat/pkg/storage"
)

// Planner tags carried on emitted planner frames.
const (
	PlannerRoute      = "🗺️ Route Planner"
	PlannerRestaurant = "🍽️ Restaurant Planner"
	PlannerBudget     = "💰 Budget Auditor"
	PlannerMediator   = "🤝 Mediator"
	PlannerConfirmer  = "✅ Confirmation"
)

// replanPrompt is the fixed tail of every budget alert.
const replanPrompt = `Reply "yes", "ok" or "replan" to replan within budget.`

// Emitter receives the frames produced while handling one utterance. The
// transport edge implements it twice over: streaming to the requester and
// publishing snapshots to the broadcast bus.
type Emitter interface {
	Agent(agent string)
	Chunk(delta string)
	PlannerStart(planner string)
	PlannerChunk(planner, delta string)
	PlannerComplete(planner, content string)
	BillIDs(ids []int64)
	Error(message string)
}

// Options wires the orchestrator's collaborators.
type Options struct {
	Gateway         llm.Gateway
	Sessions        *session.Store
	Registry        *chatroom.Registry
	Storage         *storage.Store
	Billing         *billing.Assistant
	SessionID       string
	MaxContextChars int
}

// Orchestrator executes the per-utterance state machine for the shared
// planning session.
type Orchestrator struct {
	gateway         llm.Gateway
	sessions        *session.Store
	registry        *chatroom.Registry
	storage         *storage.Store
	billing         *billing.Assistant
	sessionID       string
	maxContextChars int
}

// New builds an orchestrator from its collaborators.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		gateway:         opts.Gateway,
		sessions:        opts.Sessions,
		registry:        opts.Registry,
		storage:         opts.Storage,
		billing:         opts.Billing,
		sessionID:       opts.SessionID,
		maxContextChars: opts.MaxContextChars,
	}
}

// HandleUtterance runs one utterance through router, guards, supervisor and
// dispatch. All failures are reported in-band through the emitter; the
// returned error is for logging only.
func (o *Orchestrator) HandleUtterance(ctx context.Context, em Emitter, participantID, message string) error {
	agent, err := o.classifyAgent(ctx, message)
	if err != nil {
		em.Error("The assistant is unavailable right now: " + err.Error())
		return err
	}
	em.Agent(string(agent))

	switch agent {
	case AgentBill:
		return o.handleBill(ctx, em, message)
	case AgentTravel:
		return o.handleTravel(ctx, em, participantID, message)
	default:
		return o.streamFallback(ctx, em, message)
	}
}

func (o *Orchestrator) handleBill(ctx context.Context, em Emitter, message string) error {
	res, err := o.billing.Handle(ctx, message)
	if err != nil {
		em.Error("Bill assistant failed: " + err.Error())
		return err
	}
	em.Chunk(res.Reply)
	if len(res.BillIDs) > 0 {
		em.BillIDs(res.BillIDs)
	}
	return nil
}

func (o *Orchestrator) handleTravel(ctx context.Context, em Emitter, participantID, message string) error {
	state := o.sessions.Get(o.sessionID)

	// The two vote guards always resolve before any new intent dispatch.
	if state.AwaitingMediation {
		return o.handleMediationVote(ctx, em, participantID, message, state)
	}
	if state.AwaitingConfirmation {
		handled, err := o.handleConfirmationVote(ctx, em, participantID, message)
		if handled || err != nil {
			return err
		}
		// The objector's text falls through as a fresh utterance.
		state = o.sessions.Get(o.sessionID)
	}

	intent, err := o.classifyIntent(ctx, message, state)
	if err != nil {
		em.Error("Could not understand the request: " + err.Error())
		return err
	}
	return o.dispatch(ctx, em, participantID, message, intent)
}

func (o *Orchestrator) dispatch(ctx context.Context, em Emitter, participantID, message string, intent Intent) error {
	slog.Info("Dispatching travel intent", "intent", intent, "participant_id", participantID)
	switch intent {
	case IntentReplanAfterFail:
		return o.runReplan(ctx, em, message)
	case IntentModifyRoute:
		return o.maybeMediate(ctx, em, participantID, message, session.ModifyRoute)
	case IntentModifyRestaurant:
		return o.maybeMediate(ctx, em, participantID, message, session.ModifyRestaurant)
	case IntentModifyBudget:
		return o.maybeMediate(ctx, em, participantID, message, session.ModifyBudget)
	case IntentConfirmPlan:
		return o.startConfirmation(ctx, em)
	default:
		return o.runNewPlan(ctx, em, message)
	}
}

// --- mediation ---

func (o *Orchestrator) handleMediationVote(ctx context.Context, em Emitter, participantID, message string, state session.State) error {
	switch ParseStance(message) {
	case StanceNegative:
		o.sessions.ClearMediation(o.sessionID)
		o.notify(em, PlannerMediator, fmt.Sprintf(
			"❌ %s disagreed. The proposed modification is cancelled and the plan stays as it is.",
			o.registry.Name(participantID)))
		return nil

	case StanceAffirmative:
		if err := o.sessions.RecordVote(o.sessionID, session.VoteMediation, participantID, session.VoteAgree); err != nil {
			em.Error("Could not record the vote: " + err.Error())
			return err
		}
		if !o.sessions.TallyPassing(o.sessionID, session.VoteMediation, o.registry.Active()) {
			waiting := o.displayNames(o.sessions.PendingVoters(o.sessionID, session.VoteMediation, o.registry.Active()))
			o.notify(em, PlannerMediator, "⏳ Vote recorded. Waiting for "+strings.Join(waiting, ", ")+" to respond.")
			return nil
		}
		// Unanimous: replay the stashed request as if freshly issued.
		request := state.PendingModificationRequest
		modType := state.MediationModificationType
		o.sessions.ClearMediation(o.sessionID)
		o.notify(em, PlannerMediator, "✅ Everyone agreed. Applying the modification now.")
		return o.executeModification(ctx, em, modType, request)

	default:
		o.notify(em, PlannerMediator,
			`A modification is awaiting group consent. Please reply "agree" or "disagree" first.`)
		return nil
	}
}

func (o *Orchestrator) maybeMediate(ctx context.Context, em Emitter, participantID, message string, modType session.ModificationType) error {
	if o.registry.ActiveCount() < 2 {
		return o.executeModification(ctx, em, modType, message)
	}

	if err := o.sessions.EnterMediation(o.sessionID, message, participantID, modType, o.registry.Active()); err != nil {
		em.Error("Could not start the group vote: " + err.Error())
		return err
	}
	voters := o.displayNames(o.sessions.PendingVoters(o.sessionID, session.VoteMediation, o.registry.Active()))
	_, err := o.streamStage(ctx, em, PlannerMediator, prompt.Mediator, map[string]string{
		"requester":         o.registry.Name(participantID),
		"modification_type": string(modType),
		"request":           message,
		"voters":            strings.Join(voters, ", "),
	})
	return err
}

func (o *Orchestrator) executeModification(ctx context.Context, em Emitter, modType session.ModificationType, request string) error {
	switch modType {
	case session.ModifyRestaurant:
		return o.executeRestaurantChange(ctx, em, request)
	case session.ModifyBudget:
		return o.executeBudgetChange(ctx, em, request)
	default:
		return o.executeRouteChange(ctx, em, request)
	}
}

// --- confirmation ---

// handleConfirmationVote resolves an utterance that arrives while the
// finalization vote is open. handled=false means the utterance was an
// objection and must fall through to the supervisor.
func (o *Orchestrator) handleConfirmationVote(ctx context.Context, em Emitter, participantID, message string) (bool, error) {
	switch ParseStance(message) {
	case StanceNegative:
		o.sessions.ClearConfirmation(o.sessionID)
		o.notify(em, PlannerConfirmer, fmt.Sprintf(
			"Understood, %s. Treating your message as a revision request.",
			o.registry.Name(participantID)))
		return false, nil

	case StanceAffirmative:
		if err := o.sessions.RecordVote(o.sessionID, session.VoteConfirmation, participantID, session.VoteAgree); err != nil {
			em.Error("Could not record the vote: " + err.Error())
			return true, err
		}
		if !o.sessions.TallyPassing(o.sessionID, session.VoteConfirmation, o.registry.Active()) {
			waiting := o.displayNames(o.sessions.PendingVoters(o.sessionID, session.VoteConfirmation, o.registry.Active()))
			o.notify(em, PlannerConfirmer, "⏳ Confirmation recorded. Waiting for "+strings.Join(waiting, ", ")+".")
			return true, nil
		}
		return true, o.finalizePlan(ctx, em)

	default:
		o.notify(em, PlannerConfirmer,
			`The final plan is awaiting confirmation. Please reply "yes" to confirm or "no" to request changes.`)
		return true, nil
	}
}

func (o *Orchestrator) startConfirmation(ctx context.Context, em Emitter) error {
	state := o.sessions.Get(o.sessionID)
	if !state.HasPlan() {
		o.notify(em, PlannerConfirmer, "There is no plan to confirm yet. Describe the trip you want first.")
		return nil
	}

	if err := o.sessions.EnterConfirmation(o.sessionID, o.registry.Active()); err != nil {
		em.Error("Could not start the confirmation vote: " + err.Error())
		return err
	}
	names := o.displayNames(o.registry.Active())
	_, err := o.streamStage(ctx, em, PlannerConfirmer, prompt.Confirmer, map[string]string{
		"participants": strings.Join(names, ", "),
	})
	return err
}

func (o *Orchestrator) finalizePlan(ctx context.Context, em Emitter) error {
	state := o.sessions.Get(o.sessionID)
	names := o.displayNames(o.registry.Active())
	o.sessions.ClearConfirmation(o.sessionID)

	o.notify(em, PlannerConfirmer,
		"🎉 Unanimous! The plan is confirmed. Have a great trip, "+strings.Join(names, ", ")+"!")

	destination, days := ExtractMeta(state.RoutePlan)
	currency := state.Currency
	if currency == "" {
		currency = "USD"
	}
	plan := &storage.TravelPlan{
		SessionID:      o.sessionID,
		RoutePlan:      state.RoutePlan,
		RestaurantPlan: state.RestaurantPlan,
		Budget:         state.Budget,
		Currency:       currency,
		Destination:    destination,
		Days:           days,
		Participants:   names,
	}
	if err := o.storage.SaveTravelPlan(ctx, plan); err != nil {
		// The vote is not rolled back; the plan is verbally finalized.
		slog.Error("Failed to persist finalized plan", "session_id", o.sessionID, "error", err)
		em.Error("The confirmed plan could not be saved: " + err.Error())
		return nil
	}
	slog.Info("Finalized travel plan persisted", "plan_id", plan.ID, "destination", destination)
	return nil
}

// --- plan execution ---

func (o *Orchestrator) runNewPlan(ctx context.Context, em Emitter, message string) error {
	extraction, err := o.extractBudget(ctx, message)
	if err != nil {
		em.Error("Budget extraction failed: " + err.Error())
		return err
	}
	budget := budgetString(o.sessions.Get(o.sessionID))
	constraint := ""
	if extraction.Found {
		budget = fmt.Sprintf("%.2f %s", *extraction.Budget, extraction.Currency)
		constraint = "The total cost must stay within " + budget + "."
	}

	route, err := o.streamStage(ctx, em, PlannerRoute, prompt.RoutePlanner, map[string]string{
		"user_input":        message,
		"previous_route":    "None",
		"budget_constraint": constraint,
	})
	if err != nil {
		return err
	}
	restaurant, err := o.streamStage(ctx, em, PlannerRestaurant, prompt.RestaurantPlanner, map[string]string{
		"user_input": message,
		"route_plan": o.truncate(route),
	})
	if err != nil {
		return err
	}
	report, err := o.auditAndReport(ctx, em, message, budget, route, restaurant)
	if err != nil {
		return err
	}

	o.sessions.SetPlans(o.sessionID, route, restaurant)
	if extraction.Found {
		o.sessions.SetBudget(o.sessionID, *extraction.Budget, extraction.Currency)
	}
	if !report.Passed() {
		return o.sessions.SetAwaitingReplan(o.sessionID, true)
	}
	return nil
}

func (o *Orchestrator) runReplan(ctx context.Context, em Emitter, message string) error {
	if err := o.sessions.SetAwaitingReplan(o.sessionID, false); err != nil {
		return err
	}
	state := o.sessions.Get(o.sessionID)

	route, err := o.streamStage(ctx, em, PlannerRoute, prompt.RoutePlanner, map[string]string{
		"user_input":        message,
		"previous_route":    o.truncate(state.RoutePlan),
		"budget_constraint": budgetConstraint(state),
		"revision_note": "The previous plan failed its budget check. Replan to stay strictly " +
			"within the stated budget, cutting or downgrading items as needed.",
	})
	if err != nil {
		return err
	}
	restaurant, err := o.streamStage(ctx, em, PlannerRestaurant, prompt.RestaurantPlanner, map[string]string{
		"user_input": message,
		"route_plan": o.truncate(route),
	})
	if err != nil {
		return err
	}
	report, err := o.auditAndReport(ctx, em, message, budgetString(state), route, restaurant)
	if err != nil {
		return err
	}

	o.sessions.SetPlans(o.sessionID, route, restaurant)
	if !report.Passed() {
		// No second replan prompt; the flag stays cleared.
		o.notify(em, PlannerBudget,
			"⚠️ The plan cannot be compressed further within this budget. Consider raising the budget or shortening the trip.")
	}
	return nil
}

func (o *Orchestrator) executeRouteChange(ctx context.Context, em Emitter, request string) error {
	state := o.sessions.Get(o.sessionID)

	route, err := o.streamStage(ctx, em, PlannerRoute, prompt.RoutePlanner, map[string]string{
		"user_input":        request,
		"previous_route":    o.truncate(planOrNone(state.RoutePlan)),
		"budget_constraint": budgetConstraint(state),
		"revision_note":     "Change only the parts the user mentioned. Keep every other line word for word.",
	})
	if err != nil {
		return err
	}
	report, err := o.auditAndReport(ctx, em, request, budgetString(state), route, state.RestaurantPlan)
	if err != nil {
		return err
	}

	o.sessions.SetRoutePlan(o.sessionID, route)
	if !report.Passed() {
		return o.sessions.SetAwaitingReplan(o.sessionID, true)
	}
	return o.sessions.SetAwaitingReplan(o.sessionID, false)
}

func (o *Orchestrator) executeRestaurantChange(ctx context.Context, em Emitter, request string) error {
	state := o.sessions.Get(o.sessionID)

	restaurant, err := o.streamStage(ctx, em, PlannerRestaurant, prompt.RestaurantPlanner, map[string]string{
		"user_input": request,
		"route_plan": o.truncate(state.RoutePlan),
	})
	if err != nil {
		return err
	}
	report, err := o.auditAndReport(ctx, em, request, budgetString(state), state.RoutePlan, restaurant)
	if err != nil {
		return err
	}

	o.sessions.SetRestaurantPlan(o.sessionID, restaurant)
	if !report.Passed() {
		return o.sessions.SetAwaitingReplan(o.sessionID, true)
	}
	return o.sessions.SetAwaitingReplan(o.sessionID, false)
}

func (o *Orchestrator) executeBudgetChange(ctx context.Context, em Emitter, request string) error {
	extraction, err := o.extractBudget(ctx, request)
	if err != nil {
		em.Error("Budget extraction failed: " + err.Error())
		return err
	}
	if !extraction.Found {
		o.notify(em, PlannerBudget, `Please state the new budget amount (for example "$1200").`)
		return nil
	}

	// The stated budget is explicit user intent; it persists even when the
	// audit below fails.
	o.sessions.SetBudget(o.sessionID, *extraction.Budget, extraction.Currency)
	state := o.sessions.Get(o.sessionID)

	report, err := o.auditAndReport(ctx, em, request, budgetString(state), state.RoutePlan, state.RestaurantPlan)
	if err != nil {
		return err
	}
	if !report.Passed() {
		return o.sessions.SetAwaitingReplan(o.sessionID, true)
	}
	return o.sessions.SetAwaitingReplan(o.sessionID, false)
}

// --- stage helpers ---

// streamStage runs one streamed planner stage, mirroring chunks to the
// emitter and returning the full text.
func (o *Orchestrator) streamStage(ctx context.Context, em Emitter, planner, templateID string, vars map[string]string) (string, error) {
	stream, err := o.gateway.Stream(ctx, templateID, vars)
	if err != nil {
		em.Error("Planner failed to start: " + err.Error())
		return "", err
	}

	em.PlannerStart(planner)
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			em.Error("Request cancelled")
			return b.String(), ctx.Err()
		case chunk, ok := <-stream:
			if !ok {
				em.PlannerComplete(planner, b.String())
				return b.String(), nil
			}
			if chunk.Err != nil {
				em.Error("Planner stream failed: " + chunk.Err.Error())
				return b.String(), chunk.Err
			}
			b.WriteString(chunk.Content)
			em.PlannerChunk(planner, chunk.Content)
		}
	}
}

// auditAndReport runs the budget auditor and emits its verdict as a planner
// frame, including the replan prompt on failure.
func (o *Orchestrator) auditAndReport(ctx context.Context, em Emitter, message, budget, route, restaurant string) (AuditReport, error) {
	em.PlannerStart(PlannerBudget)
	report, err := o.runAudit(ctx, message, budget, route, restaurant)
	if err != nil {
		em.Error("Budget audit failed: " + err.Error())
		return report, err
	}
	em.PlannerComplete(PlannerBudget, formatAudit(report))
	return report, nil
}

func formatAudit(report AuditReport) string {
	if report.Passed() {
		if report.MaxBudget > 0 {
			return fmt.Sprintf("✅ Budget check passed. Estimated total %.2f %s, remaining %.2f.",
				report.TotalEstimatedCost, report.Currency, report.RemainingBudget)
		}
		return "✅ Budget check passed. " + report.Reason
	}
	var b strings.Builder
	b.WriteString("⚠️ Budget check failed: " + report.Reason)
	if report.Suggestion != "" {
		b.WriteString("\nSuggestion: " + report.Suggestion)
	}
	b.WriteString("\n" + replanPrompt)
	return b.String()
}

func (o *Orchestrator) streamFallback(ctx context.Context, em Emitter, message string) error {
	stream, err := o.gateway.Stream(ctx, prompt.Fallback, map[string]string{
		"user_input": message,
	})
	if err != nil {
		em.Error("The assistant is unavailable right now: " + err.Error())
		return err
	}
	for chunk := range stream {
		if chunk.Err != nil {
			em.Error("The assistant is unavailable right now: " + chunk.Err.Error())
			return chunk.Err
		}
		em.Chunk(chunk.Content)
	}
	return nil
}

// notify emits a short non-streamed planner message as a start/complete
// frame pair.
func (o *Orchestrator) notify(em Emitter, planner, content string) {
	em.PlannerStart(planner)
	em.PlannerComplete(planner, content)
}

func (o *Orchestrator) displayNames(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, o.registry.Name(id))
	}
	return names
}

// truncate caps prior-plan context passed back into prompts, on a rune
// boundary.
func (o *Orchestrator) truncate(text string) string {
	if o.maxContextChars <= 0 || len(text) <= o.maxContextChars {
		return text
	}
	cut := text[:o.maxContextChars]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

func budgetConstraint(state session.State) string {
	if state.Budget == nil {
		return ""
	}
	return "The total cost must stay within " + budgetString(state) + "."
}
