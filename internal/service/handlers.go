package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// ReceiptServiceName is the fully-qualified name of the ReceiptService.
	ReceiptServiceName = "receiptsplit.v1.ReceiptService"
	// SplitServiceName is the fully-qualified name of the SplitService.
	SplitServiceName = "receiptsplit.v1.SplitService"
)

// Procedure paths.
const (
	ReceiptServiceCreateReceiptProcedure = "/" + ReceiptServiceName + "/CreateReceipt"
	ReceiptServiceGetReceiptProcedure    = "/" + ReceiptServiceName + "/GetReceipt"
	ReceiptServiceListReceiptsProcedure  = "/" + ReceiptServiceName + "/ListReceipts"
	ReceiptServiceUpdateReceiptProcedure = "/" + ReceiptServiceName + "/UpdateReceipt"
	ReceiptServiceDeleteReceiptProcedure = "/" + ReceiptServiceName + "/DeleteReceipt"

	SplitServiceCalculateSplitProcedure    = "/" + SplitServiceName + "/CalculateSplit"
	SplitServiceAddParticipantProcedure    = "/" + SplitServiceName + "/AddParticipant"
	SplitServiceRemoveParticipantProcedure = "/" + SplitServiceName + "/RemoveParticipant"
	SplitServiceRenameParticipantProcedure = "/" + SplitServiceName + "/RenameParticipant"
	SplitServiceResetSplitProcedure        = "/" + SplitServiceName + "/ResetSplit"
	SplitServiceAssignItemProcedure        = "/" + SplitServiceName + "/AssignItem"
	SplitServiceGetSplitProcedure          = "/" + SplitServiceName + "/GetSplit"
)

// NewReceiptServiceHandler builds an HTTP handler serving every ReceiptService procedure.
// It returns the path prefix to mount the handler on.
func NewReceiptServiceHandler(svc *ReceiptService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ReceiptServiceCreateReceiptProcedure, connect.NewUnaryHandler(ReceiptServiceCreateReceiptProcedure, svc.CreateReceipt, opts...))
	mux.Handle(ReceiptServiceGetReceiptProcedure, connect.NewUnaryHandler(ReceiptServiceGetReceiptProcedure, svc.GetReceipt, opts...))
	mux.Handle(ReceiptServiceListReceiptsProcedure, connect.NewUnaryHandler(ReceiptServiceListReceiptsProcedure, svc.ListReceipts, opts...))
	mux.Handle(ReceiptServiceUpdateReceiptProcedure, connect.NewUnaryHandler(ReceiptServiceUpdateReceiptProcedure, svc.UpdateReceipt, opts...))
	mux.Handle(ReceiptServiceDeleteReceiptProcedure, connect.NewUnaryHandler(ReceiptServiceDeleteReceiptProcedure, svc.DeleteReceipt, opts...))

	return "/" + ReceiptServiceName + "/", mux
}

// NewSplitServiceHandler builds an HTTP handler serving every SplitService procedure.
func NewSplitServiceHandler(svc *SplitService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(SplitServiceCalculateSplitProcedure, connect.NewUnaryHandler(SplitServiceCalculateSplitProcedure, svc.CalculateSplit, opts...))
	mux.Handle(SplitServiceAddParticipantProcedure, connect.NewUnaryHandler(SplitServiceAddParticipantProcedure, svc.AddParticipant, opts...))
	mux.Handle(SplitServiceRemoveParticipantProcedure, connect.NewUnaryHandler(SplitServiceRemoveParticipantProcedure, svc.RemoveParticipant, opts...))
	mux.Handle(SplitServiceRenameParticipantProcedure, connect.NewUnaryHandler(SplitServiceRenameParticipantProcedure, svc.RenameParticipant, opts...))
	mux.Handle(SplitServiceResetSplitProcedure, connect.NewUnaryHandler(SplitServiceResetSplitProcedure, svc.ResetSplit, opts...))
	mux.Handle(SplitServiceAssignItemProcedure, connect.NewUnaryHandler(SplitServiceAssignItemProcedure, svc.AssignItem, opts...))
	mux.Handle(SplitServiceGetSplitProcedure, connect.NewUnaryHandler(SplitServiceGetSplitProcedure, svc.GetSplit, opts...))

	return "/" + SplitServiceName + "/", mux
}

// ReceiptServiceClient is a Connect client for the ReceiptService.
type ReceiptServiceClient struct {
	createReceipt *connect.Client[CreateReceiptRequest, CreateReceiptResponse]
	getReceipt    *connect.Client[GetReceiptRequest, GetReceiptResponse]
	listReceipts  *connect.Client[ListReceiptsRequest, ListReceiptsResponse]
	updateReceipt *connect.Client[UpdateReceiptRequest, UpdateReceiptResponse]
	deleteReceipt *connect.Client[DeleteReceiptRequest, DeleteReceiptResponse]
}

// NewReceiptServiceClient creates a client for the ReceiptService served at baseURL.
func NewReceiptServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ReceiptServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ReceiptServiceClient{
		createReceipt: connect.NewClient[CreateReceiptRequest, CreateReceiptResponse](httpClient, baseURL+ReceiptServiceCreateReceiptProcedure, opts...),
		getReceipt:    connect.NewClient[GetReceiptRequest, GetReceiptResponse](httpClient, baseURL+ReceiptServiceGetReceiptProcedure, opts...),
		listReceipts:  connect.NewClient[ListReceiptsRequest, ListReceiptsResponse](httpClient, baseURL+ReceiptServiceListReceiptsProcedure, opts...),
		updateReceipt: connect.NewClient[UpdateReceiptRequest, UpdateReceiptResponse](httpClient, baseURL+ReceiptServiceUpdateReceiptProcedure, opts...),
		deleteReceipt: connect.NewClient[DeleteReceiptRequest, DeleteReceiptResponse](httpClient, baseURL+ReceiptServiceDeleteReceiptProcedure, opts...),
	}
}

func (c *ReceiptServiceClient) CreateReceipt(ctx context.Context, req *connect.Request[CreateReceiptRequest]) (*connect.Response[CreateReceiptResponse], error) {
	return c.createReceipt.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) GetReceipt(ctx context.Context, req *connect.Request[GetReceiptRequest]) (*connect.Response[GetReceiptResponse], error) {
	return c.getReceipt.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) ListReceipts(ctx context.Context, req *connect.Request[ListReceiptsRequest]) (*connect.Response[ListReceiptsResponse], error) {
	return c.listReceipts.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) UpdateReceipt(ctx context.Context, req *connect.Request[UpdateReceiptRequest]) (*connect.Response[UpdateReceiptResponse], error) {
	return c.updateReceipt.CallUnary(ctx, req)
}

func (c *ReceiptServiceClient) DeleteReceipt(ctx context.Context, req *connect.Request[DeleteReceiptRequest]) (*connect.Response[DeleteReceiptResponse], error) {
	return c.deleteReceipt.CallUnary(ctx, req)
}

// SplitServiceClient is a Connect client for the SplitService.
type SplitServiceClient struct {
	calculateSplit    *connect.Client[CalculateSplitRequest, CalculateSplitResponse]
	addParticipant    *connect.Client[AddParticipantRequest, AddParticipantResponse]
	removeParticipant *connect.Client[RemoveParticipantRequest, SplitStateResponse]
	renameParticipant *connect.Client[RenameParticipantRequest, SplitStateResponse]
	resetSplit        *connect.Client[ResetSplitRequest, SplitStateResponse]
	assignItem        *connect.Client[AssignItemRequest, AssignItemResponse]
	getSplit          *connect.Client[GetSplitRequest, GetSplitResponse]
}

// NewSplitServiceClient creates a client for the SplitService served at baseURL.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SplitServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &SplitServiceClient{
		calculateSplit:    connect.NewClient[CalculateSplitRequest, CalculateSplitResponse](httpClient, baseURL+SplitServiceCalculateSplitProcedure, opts...),
		addParticipant:    connect.NewClient[AddParticipantRequest, AddParticipantResponse](httpClient, baseURL+SplitServiceAddParticipantProcedure, opts...),
		removeParticipant: connect.NewClient[RemoveParticipantRequest, SplitStateResponse](httpClient, baseURL+SplitServiceRemoveParticipantProcedure, opts...),
		renameParticipant: connect.NewClient[RenameParticipantRequest, SplitStateResponse](httpClient, baseURL+SplitServiceRenameParticipantProcedure, opts...),
		resetSplit:        connect.NewClient[ResetSplitRequest, SplitStateResponse](httpClient, baseURL+SplitServiceResetSplitProcedure, opts...),
		assignItem:        connect.NewClient[AssignItemRequest, AssignItemResponse](httpClient, baseURL+SplitServiceAssignItemProcedure, opts...),
		getSplit:          connect.NewClient[GetSplitRequest, GetSplitResponse](httpClient, baseURL+SplitServiceGetSplitProcedure, opts...),
	}
}

func (c *SplitServiceClient) CalculateSplit(ctx context.Context, req *connect.Request[CalculateSplitRequest]) (*connect.Response[CalculateSplitResponse], error) {
	return c.calculateSplit.CallUnary(ctx, req)
}

func (c *SplitServiceClient) AddParticipant(ctx context.Context, req *connect.Request[AddParticipantRequest]) (*connect.Response[AddParticipantResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

func (c *SplitServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[RemoveParticipantRequest]) (*connect.Response[SplitStateResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

func (c *SplitServiceClient) RenameParticipant(ctx context.Context, req *connect.Request[RenameParticipantRequest]) (*connect.Response[SplitStateResponse], error) {
	return c.renameParticipant.CallUnary(ctx, req)
}

func (c *SplitServiceClient) ResetSplit(ctx context.Context, req *connect.Request[ResetSplitRequest]) (*connect.Response[SplitStateResponse], error) {
	return c.resetSplit.CallUnary(ctx, req)
}

func (c *SplitServiceClient) AssignItem(ctx context.Context, req *connect.Request[AssignItemRequest]) (*connect.Response[AssignItemResponse], error) {
	return c.assignItem.CallUnary(ctx, req)
}

func (c *SplitServiceClient) GetSplit(ctx context.Context, req *connect.Request[GetSplitRequest]) (*connect.Response[GetSplitResponse], error) {
	return c.getSplit.CallUnary(ctx, req)
}
