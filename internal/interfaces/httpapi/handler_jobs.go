package httpapi

import (
	"fmt"
	"net/http"

	"github.com/onclock/draft-alerts/internal/usecase"
)

// RunDraftClockJob runs one poll pass synchronously and reports its counters.
// The route sits behind the internal job token so only the scheduler (or an
// operator with the token) can trigger it.
func (h *Handler) RunDraftClockJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunDraftClockJob")
	defer span.End()

	if h.pollService == nil {
		writeError(ctx, w, fmt.Errorf("%w: poll service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	report, err := h.pollService.RunPass(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "draft clock job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
