package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/receiptsplit/internal/assignment"
	"github.com/mmynk/receiptsplit/internal/calculator"
	"github.com/mmynk/receiptsplit/internal/models"
	"github.com/mmynk/receiptsplit/internal/storage"
)

// SplitObserver is notified of every calculated split.
type SplitObserver interface {
	ObserveSplit(result *calculator.SplitResult, reconciled bool)
}

// SplitOption configures a SplitService.
type SplitOption func(*SplitService)

// WithSplitObserver reports calculated splits to o.
func WithSplitObserver(o SplitObserver) SplitOption {
	return func(s *SplitService) {
		s.observer = o
	}
}

// WithParticipantIDs overrides participant id generation.
func WithParticipantIDs(gen func() string) SplitOption {
	return func(s *SplitService) {
		s.storeOpts = append(s.storeOpts, assignment.WithIDGenerator(gen))
	}
}

// WithWriteLock serialises mutations on mu. Share it with the
// ReceiptService (WithReceiptWriteLock) so its split patches and these
// mutations never interleave.
func WithWriteLock(mu *sync.Mutex) SplitOption {
	return func(s *SplitService) {
		s.mu = mu
	}
}

// SplitService implements the Connect SplitService.
//
// Mutations load the receipt's split, apply one assignment operation and
// save the result. They are serialised on the write lock so concurrent taps
// cannot lose updates.
type SplitService struct {
	store     storage.Store
	observer  SplitObserver
	storeOpts []assignment.Option
	mu        *sync.Mutex
}

// NewSplitService creates a new SplitService with the given storage backend.
func NewSplitService(store storage.Store, opts ...SplitOption) *SplitService {
	s := &SplitService{store: store, mu: &sync.Mutex{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateSplit runs the allocation engine on the request without touching storage.
func (s *SplitService) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	msg := req.Msg
	charges := models.Charges{Tax: msg.Tax, ServiceCharge: msg.ServiceCharge, Discount: msg.Discount}
	if err := models.ValidateItems(msg.Items); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := charges.Validate(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	slog.Debug("Calculating split",
		"items", len(msg.Items),
		"participants", len(msg.Participants),
		"assignments", len(msg.Assignments),
		"reconcile", msg.Reconcile,
	)
	split := s.calculate(msg.Items, msg.Participants, msg.Assignments, charges, msg.Reconcile)

	return connect.NewResponse(&CalculateSplitResponse{Split: split}), nil
}

// AddParticipant adds a participant with a trimmed, non-empty name.
func (s *SplitService) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errEmptyName)
	}

	var added models.Participant
	st, _, err := s.mutate(ctx, req.Msg.ReceiptID, func(st *assignment.Store, _ *models.Receipt) bool {
		added = st.AddParticipant(name)
		return true
	})
	if err != nil {
		return nil, toConnectError("AddParticipant", err)
	}
	slog.Info("Participant added", "receipt_id", req.Msg.ReceiptID, "participant_id", added.ID)

	return connect.NewResponse(&AddParticipantResponse{Participant: added, SplitState: stateOf(st)}), nil
}

// RemoveParticipant removes a participant and every item claim they hold.
func (s *SplitService) RemoveParticipant(ctx context.Context, req *connect.Request[RemoveParticipantRequest]) (*connect.Response[SplitStateResponse], error) {
	st, _, err := s.mutate(ctx, req.Msg.ReceiptID, func(st *assignment.Store, _ *models.Receipt) bool {
		st.RemoveParticipant(req.Msg.ParticipantID)
		return true
	})
	if err != nil {
		return nil, toConnectError("RemoveParticipant", err)
	}
	slog.Info("Participant removed", "receipt_id", req.Msg.ReceiptID, "participant_id", req.Msg.ParticipantID)

	return connect.NewResponse(&SplitStateResponse{SplitState: stateOf(st)}), nil
}

// RenameParticipant changes a participant's display name.
func (s *SplitService) RenameParticipant(ctx context.Context, req *connect.Request[RenameParticipantRequest]) (*connect.Response[SplitStateResponse], error) {
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errEmptyName)
	}

	st, _, err := s.mutate(ctx, req.Msg.ReceiptID, func(st *assignment.Store, _ *models.Receipt) bool {
		st.RenameParticipant(req.Msg.ParticipantID, name)
		return true
	})
	if err != nil {
		return nil, toConnectError("RenameParticipant", err)
	}

	return connect.NewResponse(&SplitStateResponse{SplitState: stateOf(st)}), nil
}

// ResetSplit clears every participant and assignment of a receipt.
func (s *SplitService) ResetSplit(ctx context.Context, req *connect.Request[ResetSplitRequest]) (*connect.Response[SplitStateResponse], error) {
	st, _, err := s.mutate(ctx, req.Msg.ReceiptID, func(st *assignment.Store, _ *models.Receipt) bool {
		st.Reset()
		return true
	})
	if err != nil {
		return nil, toConnectError("ResetSplit", err)
	}
	slog.Info("Split reset", "receipt_id", req.Msg.ReceiptID)

	return connect.NewResponse(&SplitStateResponse{SplitState: stateOf(st)}), nil
}

// AssignItem applies one assignment intent. A refused tap is not an error:
// the response reports Accepted=false and the unchanged state.
func (s *SplitService) AssignItem(ctx context.Context, req *connect.Request[AssignItemRequest]) (*connect.Response[AssignItemResponse], error) {
	msg := req.Msg
	intent := assignment.IntentTap
	if strings.TrimSpace(msg.Intent) != "" {
		var err error
		if intent, err = assignment.ParseIntent(msg.Intent); err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	mutation := assignment.Mutation{Intent: intent, ItemID: msg.ItemID, ParticipantID: msg.ParticipantID}
	st, accepted, err := s.mutate(ctx, msg.ReceiptID, func(st *assignment.Store, receipt *models.Receipt) bool {
		return st.Apply(mutation, receipt.Data.ItemQuantity(msg.ItemID))
	})
	if err != nil {
		return nil, toConnectError("AssignItem", err)
	}
	slog.Debug("Item assignment",
		"receipt_id", msg.ReceiptID,
		"item_id", msg.ItemID,
		"participant_id", msg.ParticipantID,
		"intent", intent.String(),
		"accepted", accepted,
	)

	return connect.NewResponse(&AssignItemResponse{Accepted: accepted, SplitState: stateOf(st)}), nil
}

// GetSplit returns the saved split state and its calculated breakdown.
func (s *SplitService) GetSplit(ctx context.Context, req *connect.Request[GetSplitRequest]) (*connect.Response[GetSplitResponse], error) {
	if req.Msg.ReceiptID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errMissingReceiptID)
	}

	receipt, err := s.store.GetReceipt(ctx, req.Msg.ReceiptID)
	if err != nil {
		return nil, toConnectError("GetSplit", err)
	}
	st := s.restore(receipt)
	snap := st.Snapshot()
	split := s.calculate(receipt.Data.Items, snap.Participants, snap.Assignments, receipt.Data.Charges(), req.Msg.Reconcile)

	return connect.NewResponse(&GetSplitResponse{SplitState: stateOf(st), Split: split}), nil
}

func (s *SplitService) calculate(items []models.LineItem, participants []models.Participant, assignments []models.Assignment, charges models.Charges, reconcile bool) *calculator.SplitResult {
	var split *calculator.SplitResult
	if reconcile {
		split = calculator.CalculateReconciled(items, participants, assignments, charges)
	} else {
		split = calculator.Calculate(items, participants, assignments, charges)
	}
	if s.observer != nil {
		s.observer.ObserveSplit(split, reconcile)
	}
	return split
}

// mutate loads the split of receiptID, runs fn and saves the result when fn
// reports a change.
func (s *SplitService) mutate(ctx context.Context, receiptID string, fn func(*assignment.Store, *models.Receipt) bool) (*assignment.Store, bool, error) {
	if receiptID == "" {
		return nil, false, errMissingReceiptID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	receipt, err := s.store.GetReceipt(ctx, receiptID)
	if err != nil {
		return nil, false, err
	}
	st := s.restore(receipt)
	if !fn(st, receipt) {
		return st, false, nil
	}

	snap := st.Snapshot()
	if err := s.store.SaveSplit(ctx, receiptID, snap.Participants, snap.Assignments); err != nil {
		return nil, false, err
	}
	return st, true, nil
}

func (s *SplitService) restore(receipt *models.Receipt) *assignment.Store {
	return assignment.Restore(assignment.Snapshot{
		Participants: receipt.Participants,
		Assignments:  receipt.Assignments,
	}, s.storeOpts...)
}

func stateOf(st *assignment.Store) SplitState {
	state := SplitState{Participants: st.Participants(), Assignments: st.Assignments()}
	if state.Participants == nil {
		state.Participants = []models.Participant{}
	}
	if state.Assignments == nil {
		state.Assignments = []models.Assignment{}
	}
	return state
}
