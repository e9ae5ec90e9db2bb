package channel

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/pagevault/pagevault/pkg/errors"
)

// Execution context names. Each context is an isolated runtime; the only
// way across is an envelope on the wire.
const (
	ContextPopup         = "popup"
	ContextBackground    = "background"
	ContextContentScript = "content-script"
)

// Channel names. The protocol is closed: every name carries statically
// known request and response shapes, registered below.
const (
	SavePage                  = "save-page"
	GetCurrentPageData        = "get-current-page-data"
	CheckAuth                 = "check-auth"
	GetToken                  = "get-token"
	SetToken                  = "set-token"
	ScrapePageProgress        = "scrape-page-progress"
	ScrapePageProgressToPopup = "scrape-page-progress-to-popup"
	ScrapePageData            = "scrape-page-data"
)

// SavePageRequest asks the background context to archive a capture result.
type SavePageRequest struct {
	Content  string `json:"content" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Href     string `json:"href" validate:"required"`
	FolderID int64  `json:"folderId" validate:"required,gt=0"`
	PageDesc string `json:"pageDesc"`
}

// SuccessResponse is the generic boolean acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// GetCurrentPageDataRequest asks for a capture of the given tab.
type GetCurrentPageDataRequest struct {
	TabID int `json:"tabId" validate:"required,gt=0"`
}

// PageDataResponse carries a finished capture back over the wire.
type PageDataResponse struct {
	Content  string `json:"content"`
	Title    string `json:"title"`
	Href     string `json:"href"`
	PageDesc string `json:"pageDesc"`
}

// EmptyRequest is the payload of channels that take no input.
type EmptyRequest struct{}

// EmptyResponse is the payload of channels that return nothing.
type EmptyResponse struct{}

// TokenResponse returns the stored bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// SetTokenRequest stores a bearer token in the background context.
type SetTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// ProgressEvent reports a stage transition of a running capture.
type ProgressEvent struct {
	TabID int    `json:"tabId" validate:"required,gt=0"`
	Stage string `json:"stage" validate:"required"`
}

type channelSpec struct {
	request  reflect.Type
	response reflect.Type
}

var protocol = map[string]channelSpec{
	SavePage:                  {reflect.TypeOf(SavePageRequest{}), reflect.TypeOf(SuccessResponse{})},
	GetCurrentPageData:        {reflect.TypeOf(GetCurrentPageDataRequest{}), reflect.TypeOf(PageDataResponse{})},
	CheckAuth:                 {reflect.TypeOf(EmptyRequest{}), reflect.TypeOf(SuccessResponse{})},
	GetToken:                  {reflect.TypeOf(EmptyRequest{}), reflect.TypeOf(TokenResponse{})},
	SetToken:                  {reflect.TypeOf(SetTokenRequest{}), reflect.TypeOf(SuccessResponse{})},
	ScrapePageProgress:        {reflect.TypeOf(ProgressEvent{}), reflect.TypeOf(EmptyResponse{})},
	ScrapePageProgressToPopup: {reflect.TypeOf(ProgressEvent{}), reflect.TypeOf(EmptyResponse{})},
	ScrapePageData:            {reflect.TypeOf(EmptyRequest{}), reflect.TypeOf(PageDataResponse{})},
}

var validate = validator.New()

// checkRequest verifies the payload's type and field constraints against
// the named channel's declared request shape.
func checkRequest(name string, payload interface{}) error {
	spec, ok := protocol[name]
	if !ok {
		return appErrors.Clone(appErrors.ErrProtocolMismatch, "unknown channel "+name)
	}
	t := reflect.TypeOf(payload)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != spec.request {
		return appErrors.Clone(appErrors.ErrProtocolMismatch, "payload type does not match channel "+name)
	}
	if err := validate.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrProtocolMismatch.Code, appErrors.ErrProtocolMismatch.Status, "payload fails validation for channel "+name)
	}
	return nil
}

// newRequest allocates a pointer to the channel's request type for decoding.
func newRequest(name string) (interface{}, bool) {
	spec, ok := protocol[name]
	if !ok {
		return nil, false
	}
	return reflect.New(spec.request).Interface(), true
}
