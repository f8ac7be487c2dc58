package diagram

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/coachboard/coachboard-service/pkg/server/codec"
)

const ServiceName = "coachboard.diagram.v1.DiagramService"

const (
	SaveDiagramProcedure     = "/" + ServiceName + "/SaveDiagram"
	UpdateDiagramProcedure   = "/" + ServiceName + "/UpdateDiagram"
	GetDiagramProcedure      = "/" + ServiceName + "/GetDiagram"
	ListDiagramsProcedure    = "/" + ServiceName + "/ListDiagrams"
	DeleteDiagramProcedure   = "/" + ServiceName + "/DeleteDiagram"
	ValidatePayloadProcedure = "/" + ServiceName + "/ValidatePayload"
)

//nolint:lll // readability
type DiagramServiceHandler interface {
	SaveDiagram(context.Context, *connect.Request[SaveDiagramRequest]) (*connect.Response[SaveDiagramResponse], error)
	UpdateDiagram(context.Context, *connect.Request[UpdateDiagramRequest]) (*connect.Response[UpdateDiagramResponse], error)
	GetDiagram(context.Context, *connect.Request[GetDiagramRequest]) (*connect.Response[GetDiagramResponse], error)
	ListDiagrams(context.Context, *connect.Request[ListDiagramsRequest]) (*connect.Response[ListDiagramsResponse], error)
	DeleteDiagram(context.Context, *connect.Request[DeleteDiagramRequest]) (*connect.Response[DeleteDiagramResponse], error)
	ValidatePayload(context.Context, *connect.Request[ValidatePayloadRequest]) (*connect.Response[ValidatePayloadResponse], error)
}

// NewDiagramServiceHandler builds the HTTP handler serving all procedures of
// the service. The returned path is the mount point on a http.ServeMux.
//
//nolint:whitespace // can't make both editor and linter happy
func NewDiagramServiceHandler(
	svc DiagramServiceHandler,
	opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = append([]connect.HandlerOption{codec.WithJSON()}, opts...)
	handlers := map[string]http.Handler{
		SaveDiagramProcedure: connect.NewUnaryHandler(
			SaveDiagramProcedure, svc.SaveDiagram, opts...),
		UpdateDiagramProcedure: connect.NewUnaryHandler(
			UpdateDiagramProcedure, svc.UpdateDiagram, opts...),
		GetDiagramProcedure: connect.NewUnaryHandler(
			GetDiagramProcedure, svc.GetDiagram, opts...),
		ListDiagramsProcedure: connect.NewUnaryHandler(
			ListDiagramsProcedure, svc.ListDiagrams, opts...),
		DeleteDiagramProcedure: connect.NewUnaryHandler(
			DeleteDiagramProcedure, svc.DeleteDiagram, opts...),
		ValidatePayloadProcedure: connect.NewUnaryHandler(
			ValidatePayloadProcedure, svc.ValidatePayload, opts...),
	}
	return "/" + ServiceName + "/", http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if h, ok := handlers[r.URL.Path]; ok {
				h.ServeHTTP(w, r)
				return
			}
			http.NotFound(w, r)
		})
}

// Client is a JSON speaking client for the service, used by tests and tools.
type Client struct {
	Save     *connect.Client[SaveDiagramRequest, SaveDiagramResponse]
	Update   *connect.Client[UpdateDiagramRequest, UpdateDiagramResponse]
	Get      *connect.Client[GetDiagramRequest, GetDiagramResponse]
	List     *connect.Client[ListDiagramsRequest, ListDiagramsResponse]
	Delete   *connect.Client[DeleteDiagramRequest, DeleteDiagramResponse]
	Validate *connect.Client[ValidatePayloadRequest, ValidatePayloadResponse]
}

//nolint:whitespace // can't make both editor and linter happy
func NewClient(
	httpClient connect.HTTPClient,
	baseURL string,
	opts ...connect.ClientOption,
) *Client {
	opts = append([]connect.ClientOption{codec.WithJSON()}, opts...)
	return &Client{
		Save: connect.NewClient[SaveDiagramRequest, SaveDiagramResponse](
			httpClient, baseURL+SaveDiagramProcedure, opts...),
		Update: connect.NewClient[UpdateDiagramRequest, UpdateDiagramResponse](
			httpClient, baseURL+UpdateDiagramProcedure, opts...),
		Get: connect.NewClient[GetDiagramRequest, GetDiagramResponse](
			httpClient, baseURL+GetDiagramProcedure, opts...),
		List: connect.NewClient[ListDiagramsRequest, ListDiagramsResponse](
			httpClient, baseURL+ListDiagramsProcedure, opts...),
		Delete: connect.NewClient[DeleteDiagramRequest, DeleteDiagramResponse](
			httpClient, baseURL+DeleteDiagramProcedure, opts...),
		Validate: connect.NewClient[ValidatePayloadRequest, ValidatePayloadResponse](
			httpClient, baseURL+ValidatePayloadProcedure, opts...),
	}
}
