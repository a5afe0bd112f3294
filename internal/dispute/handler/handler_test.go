package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"veridoc/internal/audit"
	"veridoc/internal/dispute"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	"veridoc/pkg/testutil"
)

type stubService struct {
	createFn    func(ctx context.Context, req dispute.CreateRequest) (dispute.Dispute, error)
	triageFn    func(ctx context.Context, id string) (dispute.Dispute, error)
	reVerifyFn  func(ctx context.Context, id string) (dispute.Dispute, error)
	resolveFn   func(ctx context.Context, id string, req dispute.ResolveRequest) (dispute.Dispute, error)
	getFn       func(ctx context.Context, id string) (dispute.Dispute, error)
	trailFn     func(ctx context.Context, id string) ([]audit.Entry, error)
	letterFn    func(ctx context.Context, id string) (string, error)
	analyticsFn func(ctx context.Context) (dispute.Analytics, error)
}

func (s *stubService) Create(ctx context.Context, req dispute.CreateRequest) (dispute.Dispute, error) {
	return s.createFn(ctx, req)
}

func (s *stubService) Triage(ctx context.Context, id string) (dispute.Dispute, error) {
	return s.triageFn(ctx, id)
}

func (s *stubService) ReVerify(ctx context.Context, id string) (dispute.Dispute, error) {
	return s.reVerifyFn(ctx, id)
}

func (s *stubService) Resolve(ctx context.Context, id string, req dispute.ResolveRequest) (dispute.Dispute, error) {
	return s.resolveFn(ctx, id, req)
}

func (s *stubService) Get(ctx context.Context, id string) (dispute.Dispute, error) {
	return s.getFn(ctx, id)
}

func (s *stubService) Trail(ctx context.Context, id string) ([]audit.Entry, error) {
	return s.trailFn(ctx, id)
}

func (s *stubService) ResolutionLetter(ctx context.Context, id string) (string, error) {
	return s.letterFn(ctx, id)
}

func (s *stubService) GetAnalytics(ctx context.Context) (dispute.Analytics, error) {
	return s.analyticsFn(ctx)
}

func newRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func TestHandleCreate(t *testing.T) {
	t.Run("success returns 201", func(t *testing.T) {
		svc := &stubService{
			createFn: func(_ context.Context, req dispute.CreateRequest) (dispute.Dispute, error) {
				assert.Equal(t, "ver_1", req.VerificationID)
				return dispute.Dispute{ID: "disp_1", VerificationID: req.VerificationID, Status: domain.DisputeIntake}, nil
			},
		}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/disputes", dispute.CreateRequest{
			VerificationID: "ver_1",
			CustomerReason: "name is correct",
		})
		rr := testutil.DoRequest(newRouter(svc), req)

		testutil.AssertStatus(t, rr, http.StatusCreated)
		testutil.AssertJSONContains(t, rr, "id", "disp_1")
		testutil.AssertJSONContains(t, rr, "status", "INTAKE")
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		svc := &stubService{}
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/disputes", `not-json`)
		rr := testutil.DoRequest(newRouter(svc), req)

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestHandleLifecycleSteps(t *testing.T) {
	t.Run("triage", func(t *testing.T) {
		svc := &stubService{
			triageFn: func(_ context.Context, id string) (dispute.Dispute, error) {
				return dispute.Dispute{ID: id, Status: domain.DisputeTriaged}, nil
			},
		}
		rr := testutil.DoRequest(newRouter(svc), testutil.NewRequest(t, http.MethodPost, "/disputes/disp_1/triage"))

		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "TRIAGED")
	})

	t.Run("reverify", func(t *testing.T) {
		svc := &stubService{
			reVerifyFn: func(_ context.Context, id string) (dispute.Dispute, error) {
				return dispute.Dispute{ID: id, Status: domain.DisputeReVerified}, nil
			},
		}
		rr := testutil.DoRequest(newRouter(svc), testutil.NewRequest(t, http.MethodPost, "/disputes/disp_1/reverify"))

		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "RE_VERIFIED")
	})

	t.Run("resolve", func(t *testing.T) {
		svc := &stubService{
			resolveFn: func(_ context.Context, id string, req dispute.ResolveRequest) (dispute.Dispute, error) {
				assert.Equal(t, "APPROVED", req.FinalDecision)
				return dispute.Dispute{ID: id, Status: domain.DisputeResolved}, nil
			},
		}
		req := testutil.NewJSONRequest(t, http.MethodPost, "/disputes/disp_1/resolve", dispute.ResolveRequest{
			FinalDecision: "APPROVED",
			Reason:        "evidence corroborated",
		})
		rr := testutil.DoRequest(newRouter(svc), req)

		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "RESOLVED")
	})

	t.Run("out of order step maps to 409", func(t *testing.T) {
		svc := &stubService{
			triageFn: func(_ context.Context, id string) (dispute.Dispute, error) {
				return dispute.Dispute{}, dErrors.New(dErrors.CodeInvalidState, "dispute "+id+" is TRIAGED, expected INTAKE")
			},
		}
		rr := testutil.DoRequest(newRouter(svc), testutil.NewRequest(t, http.MethodPost, "/disputes/disp_1/triage"))

		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "invalid_state")
	})
}

func TestHandleLetter(t *testing.T) {
	svc := &stubService{
		letterFn: func(_ context.Context, id string) (string, error) {
			return "Dear Customer,\n\nYour dispute " + id + " has been reviewed.\n", nil
		},
	}
	rr := testutil.DoRequest(newRouter(svc), testutil.NewRequest(t, http.MethodGet, "/disputes/disp_1/letter"))

	testutil.AssertStatusOK(t, rr)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "disp_1")
}

func TestHandleAnalyticsRouteIsNotCapturedAsID(t *testing.T) {
	svc := &stubService{
		analyticsFn: func(context.Context) (dispute.Analytics, error) {
			return dispute.Analytics{TotalDisputes: 3, ResolvedDisputes: 2}, nil
		},
		getFn: func(_ context.Context, id string) (dispute.Dispute, error) {
			t.Fatalf("analytics request reached the id route with id %q", id)
			return dispute.Dispute{}, nil
		},
	}
	rr := testutil.DoRequest(newRouter(svc), testutil.NewRequest(t, http.MethodGet, "/disputes/analytics"))

	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "total_disputes", float64(3))
}

func TestHandleGetNotFound(t *testing.T) {
	svc := &stubService{
		getFn: func(_ context.Context, id string) (dispute.Dispute, error) {
			return dispute.Dispute{}, dErrors.New(dErrors.CodeNotFound, "dispute not found: "+id)
		},
	}
	rr := testutil.DoRequest(newRouter(svc), testutil.NewRequest(t, http.MethodGet, "/disputes/disp_missing"))

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}
