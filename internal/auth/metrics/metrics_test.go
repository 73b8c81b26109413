package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin(OutcomeSuccess)
	c.RecordLogin(OutcomeSuccess)
	c.RecordLogin(OutcomeRejected)
	c.RecordMFA("verify_login", OutcomeReplayed)
	c.RecordEnrollment(OutcomeSuccess)
	c.RecordSocial("github", OutcomeCreated)
	c.RecordTokenIssued(TokenChallenge)
	c.RecordHousekeeping("totp_used_steps", 3, 10*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues(OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues(OutcomeRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.mfa.WithLabelValues("verify_login", OutcomeReplayed)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.enrollments.WithLabelValues(OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.social.WithLabelValues("github", OutcomeCreated)))
	require.Equal(t, 1.0, testutil.ToFloat64(c.tokens.WithLabelValues(TokenChallenge)))
	require.Equal(t, 3.0, testutil.ToFloat64(c.purged.WithLabelValues("totp_used_steps")))
}

func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	require.Panics(t, func() { NewCollector(reg) })
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordTokenIssued(TokenFull)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Result().Body)
	require.True(t, strings.Contains(string(body), `auth_tokens_issued_total{kind="full"} 1`))
}

func TestOrNop(t *testing.T) {
	require.Equal(t, Nop{}, OrNop(nil))

	c := NewCollector(prometheus.NewRegistry())
	require.Same(t, c, OrNop(c))
}
