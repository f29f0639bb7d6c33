package looker

import (
	"strings"

	"github.com/looker-open-source/sdk-codegen/go/rtl"
	v4 "github.com/looker-open-source/sdk-codegen/go/sdk/v4"
)

// Client is the subset of the Looker 4.0 SDK used by the cleanup.
// *v4.LookerSDK satisfies it.
type Client interface {
	CreateQuery(body v4.WriteQuery, fields string, options *rtl.ApiSettings) (v4.Query, error)
	RunQuery(request v4.RequestRunQuery, options *rtl.ApiSettings) (string, error)
	SearchLooks(request v4.RequestSearchLooks, options *rtl.ApiSettings) ([]v4.Look, error)
	UpdateDashboard(dashboardId string, body v4.WriteDashboard, options *rtl.ApiSettings) (v4.Dashboard, error)
	DeleteDashboard(dashboardId string, options *rtl.ApiSettings) (string, error)
	UpdateLook(lookId string, body v4.WriteLookWithQuery, fields string, options *rtl.ApiSettings) (v4.LookWithQuery, error)
	DeleteLook(lookId string, options *rtl.ApiSettings) (string, error)
	ScheduledPlanRunOnce(body v4.WriteScheduledPlan, options *rtl.ApiSettings) (v4.ScheduledPlan, error)
}

var _ Client = (*v4.LookerSDK)(nil)

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	VerifySSL    bool
	Timeout      int32 // seconds
}

const apiVersion = "4.0"

// NewSDK builds an authenticated API 4.0 client. The session logs in with the
// client credentials on first use and refreshes the token itself.
func NewSDK(cfg Config) *v4.LookerSDK {
	settings := rtl.ApiSettings{
		BaseUrl:      strings.TrimRight(cfg.BaseURL, "/"),
		ClientId:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		VerifySsl:    cfg.VerifySSL,
		Timeout:      cfg.Timeout,
		ApiVersion:   apiVersion,
		AgentTag:     "content-cleanup",
	}
	return v4.NewLookerSDK(rtl.NewAuthSession(settings))
}

func ptr[T any](v T) *T { return &v }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
