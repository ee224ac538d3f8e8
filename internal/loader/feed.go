package loader

import (
	"context"
	"fmt"

	"github.com/philipparndt/gobim/internal/controller"
)

// Feed loads manifestPath into session. The whole manifest replaces the
// loaded models in one step: models no longer listed are unloaded, nodes may
// move between models, and a manifest that fails to load or register leaves
// the session untouched.
func Feed(ctx context.Context, session *controller.Session, manifestPath string, opts ...Option) error {
	models, err := Load(ctx, manifestPath, opts...)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load %s: %w", manifestPath, err)
	}
	return session.Handle(controller.SceneLoaded{Models: models})
}
