package mvretail

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/demoplan/demoplan/engine/core"
	"github.com/demoplan/demoplan/pkg/config"
)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := &config.UpstreamConfig{
		BaseURL:        serverURL,
		Username:       "user",
		Password:       config.SensitiveString("secret"),
		RequestTimeout: 5 * time.Second,
		SessionRefresh: time.Hour,
		Timezone:       "UTC",
	}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func loginHandler(logins *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "session-1", Path: "/"})
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success":true}`))
	}
}

func TestClient_PushAssignment(t *testing.T) {
	t.Run("Should send the exact ordered form body with encoded datetimes", func(t *testing.T) {
		var logins atomic.Int32
		var gotBody string
		var gotContentType string
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/scheduleMplanEvent", func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			gotBody = string(raw)
			gotContentType = r.Header.Get("Content-Type")
			_, _ = w.Write([]byte(`{"ScheduledmPlanID":"UP-77"}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		ref, err := client.PushAssignment(context.Background(), Assignment{
			RepID:      "R1",
			MPlanID:    "M1",
			LocationID: "L1",
			Start:      time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC),
			End:        time.Date(2026, 3, 2, 10, 45, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, "UP-77", ref)
		assert.Equal(t, int32(1), logins.Load())
		assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
		assert.Equal(t,
			"ClassName=MVScheduledmPlan&RepID=R1&mPlanID=M1&LocationID=L1"+
				"&Start=2026-03-02T09%3A45%3A00%2B00%3A00&End=2026-03-02T10%3A45%3A00%2B00%3A00"+
				"&hash=&v=3.0.1&PlanningOverride=true",
			gotBody)
	})

	t.Run("Should re-login once and retry when the session drifts", func(t *testing.T) {
		var logins, pushes atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/scheduleMplanEvent", func(w http.ResponseWriter, r *http.Request) {
			if pushes.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":1234}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		ref, err := client.PushAssignment(context.Background(), Assignment{
			RepID: "R1", MPlanID: "M1", LocationID: "L1",
			Start: time.Date(2026, 3, 2, 9, 45, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 10, 45, 0, 0, time.UTC),
		})

		require.NoError(t, err)
		assert.Equal(t, "1234", ref)
		assert.Equal(t, int32(2), logins.Load())
		assert.Equal(t, int32(2), pushes.Load())
	})

	t.Run("Should classify a 4xx rejection as permanent", func(t *testing.T) {
		var logins atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/scheduleMplanEvent", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.PushAssignment(context.Background(), Assignment{RepID: "R1", MPlanID: "M1", LocationID: "L1"})

		require.Error(t, err)
		assert.Equal(t, core.KindUpstreamPermanent, core.KindOf(err))
	})

	t.Run("Should classify a 5xx as transient", func(t *testing.T) {
		var logins atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/scheduleMplanEvent", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.PushAssignment(context.Background(), Assignment{RepID: "R1", MPlanID: "M1", LocationID: "L1"})

		require.Error(t, err)
		assert.Equal(t, core.KindUpstreamTransient, core.KindOf(err))
	})

	t.Run("Should fail a push accepted without an assignment id", func(t *testing.T) {
		var logins atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/scheduleMplanEvent", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		_, err := client.PushAssignment(context.Background(), Assignment{RepID: "R1", MPlanID: "M1", LocationID: "L1"})

		require.Error(t, err)
		assert.Equal(t, core.KindUpstreamPermanent, core.KindOf(err))
	})
}

func TestClient_DeleteAssignment(t *testing.T) {
	t.Run("Should treat a 404 as already deleted", func(t *testing.T) {
		var logins atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/deleteMplanEvent", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		assert.NoError(t, client.DeleteAssignment(context.Background(), "UP-1"))
	})

	t.Run("Should send the mirror form body", func(t *testing.T) {
		var logins atomic.Int32
		var gotBody string
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/deleteMplanEvent", func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			gotBody = string(raw)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		require.NoError(t, client.DeleteAssignment(context.Background(), "UP-9"))
		assert.Equal(t, "ClassName=MVScheduledmPlan&ScheduledmPlanID=UP-9&hash=&v=3.0.1", gotBody)
	})

	t.Run("Should reject an empty upstream ref locally", func(t *testing.T) {
		client := testClient(t, "http://127.0.0.1:0")
		err := client.DeleteAssignment(context.Background(), "")
		require.Error(t, err)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
	})
}

func TestClient_Pull(t *testing.T) {
	t.Run("Should map reps with repId and employeeId fallback", func(t *testing.T) {
		var logins atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/schedulingcontroller/getAvailableReps", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[
				{"id":1,"repId":501,"employeeId":"E-1","title":"Alice Smith","role":"Lead Event Specialist"},
				{"id":2,"repId":null,"employeeId":"E-2","title":"Bob Jones"},
				{"id":3,"title":"No Ids"}
			]`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		reps, err := client.ListAvailableReps(context.Background(),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC))

		require.NoError(t, err)
		require.Len(t, reps, 2)
		assert.Equal(t, Rep{ExternalID: "501", Name: "Alice Smith", JobTitle: "Lead Event Specialist"}, reps[0])
		assert.Equal(t, Rep{ExternalID: "E-2", Name: "Bob Jones", JobTitle: ""}, reps[1])
	})

	t.Run("Should map planning events preserving upstream ids", func(t *testing.T) {
		var logins atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/getPlanningEvents", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[
				{"mPlanID":"M-1","locationID":"L-1","projectName":"Core Demo 123456","startDate":"2026-03-02","dueDate":"2026-03-09"},
				{"id":77,"name":"Freeosk Refill","startDate":"2026-03-02T08:00:00","dueDate":"2026-03-05T00:00:00"},
				{"locationID":"L-2","projectName":"Missing Id"}
			]`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		events, err := client.ListPlanningEvents(context.Background())

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "M-1", events[0].ExternalID)
		assert.Equal(t, "L-1", events[0].LocationMVID)
		assert.Equal(t, "Core Demo 123456", events[0].ProjectName)
		assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), events[0].Start)
		assert.Equal(t, "77", events[1].ExternalID)
		assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), events[1].Start)
	})

	t.Run("Should map scheduled events and skip incomplete rows", func(t *testing.T) {
		var logins atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/schedulingcontroller/getScheduledEvents", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[
				{"ScheduledmPlanID":"S-1","mPlanID":"M-1","repId":501,"start":"2026-03-02T09:45:00"},
				{"mPlanID":"M-2","repId":502}
			]`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		events, err := client.ListScheduledEvents(context.Background(),
			time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC))

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "S-1", events[0].UpstreamRef)
		assert.Equal(t, "M-1", events[0].MPlanID)
		assert.Equal(t, "501", events[0].RepID)
	})
}

func TestClient_Session(t *testing.T) {
	t.Run("Should login once across consecutive calls inside the refresh window", func(t *testing.T) {
		var logins atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/getPlanningEvents", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		for i := 0; i < 3; i++ {
			_, err := client.ListPlanningEvents(context.Background())
			require.NoError(t, err)
		}
		assert.Equal(t, int32(1), logins.Load())
	})

	t.Run("Should report healthy only when an authenticated call succeeds", func(t *testing.T) {
		var logins atomic.Int32
		var healthy atomic.Bool
		mux := http.NewServeMux()
		mux.HandleFunc("/login/authenticate", loginHandler(&logins))
		mux.HandleFunc("/planningextcontroller/getPlanningEvents", func(w http.ResponseWriter, r *http.Request) {
			if !healthy.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`[]`))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		client := testClient(t, server.URL)
		require.Error(t, client.HealthCheck(context.Background()))
		healthy.Store(true)
		assert.NoError(t, client.HealthCheck(context.Background()))
	})
}
