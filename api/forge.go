package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/storehook"
	"github.com/xraph/storehook/catalog"
	"github.com/xraph/storehook/delivery"
	"github.com/xraph/storehook/endpoint"
	"github.com/xraph/storehook/id"
)

// ForgeAPI wires all Forge-style HTTP handlers together.
type ForgeAPI struct {
	hook *storehook.Storehook
	log  forge.Logger
}

// NewForgeAPI creates a ForgeAPI over a Storehook instance.
func NewForgeAPI(hook *storehook.Storehook, log forge.Logger) *ForgeAPI {
	return &ForgeAPI{
		hook: hook,
		log:  log,
	}
}

// RegisterRoutes registers all Storehook admin API routes into the given
// Forge router with full OpenAPI metadata.
func (a *ForgeAPI) RegisterRoutes(router forge.Router) {
	a.registerEndpointRoutes(router)
	a.registerLogRoutes(router)
	a.registerEventRoutes(router)
}

// ---------------------------------------------------------------------------
// Endpoint routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerEndpointRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("endpoints"))

	if err := g.POST("/endpoints", a.createEndpoint,
		forge.WithSummary("Create endpoint"),
		forge.WithDescription("Registers a webhook endpoint. The signing secret is returned only in this response."),
		forge.WithOperationID("createEndpoint"),
		forge.WithRequestSchema(CreateEndpointForgeRequest{}),
		forge.WithCreatedResponse(createEndpointResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		// Keep registering the remaining routes; failures surface in logs.
		a.log.Error("Failed to register createEndpoint route", forge.Error(err))
	}

	if err := g.GET("/endpoints", a.listEndpoints,
		forge.WithSummary("List endpoints"),
		forge.WithDescription("Returns a cursor-paginated list of endpoints, newest first."),
		forge.WithOperationID("listEndpoints"),
		forge.WithRequestSchema(ListEndpointsForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Endpoint page", endpoint.Page{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listEndpoints route", forge.Error(err))
	}

	if err := g.GET("/endpoints/:endpointId", a.getEndpoint,
		forge.WithSummary("Get endpoint"),
		forge.WithDescription("Returns details of a specific endpoint."),
		forge.WithOperationID("getEndpoint"),
		forge.WithResponseSchema(http.StatusOK, "Endpoint details", endpoint.Endpoint{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getEndpoint route", forge.Error(err))
	}

	if err := g.PATCH("/endpoints/:endpointId", a.updateEndpoint,
		forge.WithSummary("Update endpoint"),
		forge.WithDescription("Applies a partial update. Omitted fields are left unchanged."),
		forge.WithOperationID("updateEndpoint"),
		forge.WithRequestSchema(UpdateEndpointForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated endpoint", endpoint.Endpoint{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register updateEndpoint route", forge.Error(err))
	}

	if err := g.DELETE("/endpoints/:endpointId", a.deleteEndpoint,
		forge.WithSummary("Delete endpoint"),
		forge.WithDescription("Removes an endpoint. Its delivery logs are kept."),
		forge.WithOperationID("deleteEndpoint"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register deleteEndpoint route", forge.Error(err))
	}

	if err := g.POST("/endpoints/:endpointId/rotate-secret", a.rotateSecret,
		forge.WithSummary("Rotate secret"),
		forge.WithDescription("Generates a new signing secret for the endpoint."),
		forge.WithOperationID("rotateEndpointSecret"),
		forge.WithResponseSchema(http.StatusOK, "New signing secret", SecretForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register rotateSecret route", forge.Error(err))
	}

	if err := g.POST("/endpoints/:endpointId/test", a.testEndpoint,
		forge.WithSummary("Send test webhook"),
		forge.WithDescription("Sends a mock payload to the endpoint. Rate limited per endpoint."),
		forge.WithOperationID("testEndpoint"),
		forge.WithRequestSchema(TestEndpointForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Dispatch result", delivery.Result{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register testEndpoint route", forge.Error(err))
	}
}

func (a *ForgeAPI) createEndpoint(ctx forge.Context, req *CreateEndpointForgeRequest) (*createEndpointResponse, error) {
	ep, err := a.hook.Endpoints().Create(ctx.Context(), endpoint.Input{
		URL:         req.URL,
		Events:      req.Events,
		Description: req.Description,
		Active:      req.Active,
	})
	if err != nil {
		return nil, mapError(err)
	}

	err = ctx.JSON(http.StatusCreated, createEndpointResponse{Endpoint: ep, Secret: ep.Secret})
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) listEndpoints(ctx forge.Context, req *ListEndpointsForgeRequest) (*endpoint.Page, error) {
	page, err := a.hook.Endpoints().List(ctx.Context(), endpoint.ListOpts{
		Cursor: req.Cursor,
		Limit:  req.Limit,
		Status: endpoint.StatusFilter(req.Status),
	})
	if err != nil {
		return nil, mapError(err)
	}

	return page, nil
}

func (a *ForgeAPI) getEndpoint(ctx forge.Context, req *EndpointPathForgeRequest) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	ep, getErr := a.hook.Endpoints().Get(ctx.Context(), epID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return ep, nil
}

func (a *ForgeAPI) updateEndpoint(ctx forge.Context, req *UpdateEndpointForgeRequest) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	ep, updateErr := a.hook.Endpoints().Update(ctx.Context(), epID, endpoint.Update{
		URL:         req.URL,
		Events:      req.Events,
		Description: req.Description,
		Active:      req.Active,
	})
	if updateErr != nil {
		return nil, mapError(updateErr)
	}

	return ep, nil
}

func (a *ForgeAPI) deleteEndpoint(ctx forge.Context, req *EndpointPathForgeRequest) (*endpoint.Endpoint, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	if deleteErr := a.hook.Endpoints().Delete(ctx.Context(), epID); deleteErr != nil {
		return nil, mapError(deleteErr)
	}

	err = ctx.NoContent(http.StatusNoContent)
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.NoContent.
	return nil, nil
}

func (a *ForgeAPI) rotateSecret(ctx forge.Context, req *EndpointPathForgeRequest) (*SecretForgeResponse, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	secret, rotateErr := a.hook.Endpoints().RotateSecret(ctx.Context(), epID)
	if rotateErr != nil {
		return nil, mapError(rotateErr)
	}

	return &SecretForgeResponse{Secret: secret}, nil
}

func (a *ForgeAPI) testEndpoint(ctx forge.Context, req *TestEndpointForgeRequest) (*delivery.Result, error) {
	epID, err := id.ParseEndpointID(req.EndpointID)
	if err != nil {
		return nil, forge.BadRequest("invalid endpoint ID")
	}

	res, testErr := a.hook.Test(ctx.Context(), epID, req.EventType)
	if testErr != nil {
		return nil, mapError(testErr)
	}

	return &res, nil
}

// ---------------------------------------------------------------------------
// Log routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerLogRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("logs"))

	if err := g.GET("/logs", a.listLogs,
		forge.WithSummary("List delivery logs"),
		forge.WithDescription("Returns a cursor-paginated list of delivery attempts, newest first."),
		forge.WithOperationID("listLogs"),
		forge.WithRequestSchema(ListLogsForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Log page", delivery.Page{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listLogs route", forge.Error(err))
	}

	if err := g.GET("/logs/:logId", a.getLog,
		forge.WithSummary("Get delivery log"),
		forge.WithDescription("Returns one delivery attempt including its stored payload."),
		forge.WithOperationID("getLog"),
		forge.WithResponseSchema(http.StatusOK, "Delivery log entry", delivery.Log{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register getLog route", forge.Error(err))
	}

	if err := g.POST("/logs/:logId/archive", a.archiveLog,
		forge.WithSummary("Archive delivery log"),
		forge.WithDescription("Moves a failed entry to archived. Archiving twice is a no-op."),
		forge.WithOperationID("archiveLog"),
		forge.WithResponseSchema(http.StatusOK, "Archived entry", delivery.Log{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register archiveLog route", forge.Error(err))
	}

	if err := g.POST("/logs/:logId/retry", a.retryLog,
		forge.WithSummary("Retry delivery"),
		forge.WithDescription("Re-sends the stored payload of a failed entry as a new attempt."),
		forge.WithOperationID("retryLog"),
		forge.WithResponseSchema(http.StatusOK, "Dispatch result", delivery.Result{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register retryLog route", forge.Error(err))
	}
}

func (a *ForgeAPI) listLogs(ctx forge.Context, req *ListLogsForgeRequest) (*delivery.Page, error) {
	status, ok := parseLogStatus(req.Status)
	if !ok {
		return nil, forge.BadRequest("status must be one of success, failed, archived, retried, all")
	}

	opts := delivery.ListOpts{
		Cursor:    req.Cursor,
		Limit:     req.Limit,
		Status:    status,
		EventType: req.EventType,
	}
	if req.EndpointID != "" {
		epID, err := id.ParseEndpointID(req.EndpointID)
		if err != nil {
			return nil, forge.BadRequest("invalid endpoint ID")
		}
		opts.EndpointID = epID
	}

	page, err := a.hook.ListLogs(ctx.Context(), opts)
	if err != nil {
		return nil, mapError(err)
	}

	return page, nil
}

func (a *ForgeAPI) getLog(ctx forge.Context, req *LogPathForgeRequest) (*delivery.Log, error) {
	logID, err := id.ParseLogID(req.LogID)
	if err != nil {
		return nil, forge.BadRequest("invalid log ID")
	}

	entry, getErr := a.hook.GetLog(ctx.Context(), logID)
	if getErr != nil {
		return nil, mapError(getErr)
	}

	return entry, nil
}

func (a *ForgeAPI) archiveLog(ctx forge.Context, req *LogPathForgeRequest) (*delivery.Log, error) {
	logID, err := id.ParseLogID(req.LogID)
	if err != nil {
		return nil, forge.BadRequest("invalid log ID")
	}

	entry, archiveErr := a.hook.Archive(ctx.Context(), logID)
	if archiveErr != nil {
		return nil, mapError(archiveErr)
	}

	return entry, nil
}

func (a *ForgeAPI) retryLog(ctx forge.Context, req *LogPathForgeRequest) (*delivery.Result, error) {
	logID, err := id.ParseLogID(req.LogID)
	if err != nil {
		return nil, forge.BadRequest("invalid log ID")
	}

	entry, getErr := a.hook.GetLog(ctx.Context(), logID)
	if getErr != nil {
		return nil, mapError(getErr)
	}
	if entry.Status != delivery.StatusFailed {
		return nil, forge.NewHTTPError(http.StatusConflict, "only failed deliveries can be retried")
	}

	res, retryErr := a.hook.Retry(ctx.Context(), logID)
	if retryErr != nil {
		return nil, mapError(retryErr)
	}

	return &res, nil
}

// ---------------------------------------------------------------------------
// Event routes
// ---------------------------------------------------------------------------

func (a *ForgeAPI) registerEventRoutes(router forge.Router) {
	g := router.Group("", forge.WithGroupTags("events"))

	if err := g.GET("/event-types", a.listEventTypes,
		forge.WithSummary("List event types"),
		forge.WithDescription("Returns the allow-listed storefront event types."),
		forge.WithOperationID("listEventTypes"),
		forge.WithListResponse(catalog.Definition{}, http.StatusOK),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register listEventTypes route", forge.Error(err))
	}

	if err := g.POST("/events", a.triggerEvent,
		forge.WithSummary("Trigger event"),
		forge.WithDescription("Validates an event and fans it out synchronously to every subscribed endpoint."),
		forge.WithOperationID("triggerEvent"),
		forge.WithRequestSchema(TriggerEventForgeRequest{}),
		forge.WithResponseSchema(http.StatusAccepted, "Dispatch results", triggerEventResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register triggerEvent route", forge.Error(err))
	}

	if err := g.GET("/email-check", a.checkEmail,
		forge.WithSummary("Check email"),
		forge.WithDescription("Reports whether an address uses a disposable-mail domain."),
		forge.WithOperationID("checkEmail"),
		forge.WithRequestSchema(CheckEmailForgeRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Verdict", EmailCheckForgeResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		a.log.Error("Failed to register checkEmail route", forge.Error(err))
	}
}

func (a *ForgeAPI) listEventTypes(_ forge.Context, _ *ListEventTypesForgeRequest) ([]catalog.Definition, error) {
	return a.hook.Catalog().List(), nil
}

func (a *ForgeAPI) triggerEvent(ctx forge.Context, req *TriggerEventForgeRequest) (*triggerEventResponse, error) {
	if req.EventType == "" {
		return nil, forge.BadRequest("event_type is required")
	}

	var data any = req.Data
	if len(req.Data) == 0 {
		data = map[string]any{}
	}

	results, err := a.hook.TriggerSync(ctx.Context(), req.EventType, data)
	if err != nil {
		return nil, mapError(err)
	}
	if results == nil {
		results = []delivery.Result{}
	}

	err = ctx.JSON(http.StatusAccepted, triggerEventResponse{EventType: req.EventType, Results: results})
	if err != nil {
		return nil, mapError(err)
	}

	//nolint:nilnil // response already written via ctx.JSON.
	return nil, nil
}

func (a *ForgeAPI) checkEmail(ctx forge.Context, req *CheckEmailForgeRequest) (*EmailCheckForgeResponse, error) {
	if req.Email == "" {
		return nil, forge.BadRequest("email query parameter is required")
	}

	disposable, err := a.hook.CheckEmail(ctx.Context(), req.Email)
	if err != nil {
		return nil, mapError(err)
	}

	return &EmailCheckForgeResponse{Email: req.Email, Disposable: disposable}, nil
}
