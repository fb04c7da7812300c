package bootstrap

import (
	"github.com/rs/zerolog"

	"github.com/lumenquiz/session-runtime/internal/config"
	"github.com/lumenquiz/session-runtime/internal/grader"
	"github.com/lumenquiz/session-runtime/internal/runtime"
)

// NewController wires the Session Runtime controller out of the
// Repositories, the Grader Oracle, and the Broadcaster.
func NewController(repos *Repositories, cfg config.GraderConfig, hub runtime.Broadcaster, log zerolog.Logger) *runtime.Controller {
	oracle := grader.NewHTTPOracle(cfg, log)
	return runtime.NewController(
		repos.SessionRepo,
		repos.QuizRepo,
		repos.PlayerRepo,
		repos.AnswerRepo,
		repos.SnapshotRepo,
		oracle,
		hub,
		log,
	)
}
