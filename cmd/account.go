package main

import (
	"context"

	"github.com/desertthunder/tcx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// Me prints the authenticated account.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAPI(ctx, cmd); err != nil {
		return err
	}
	tr := r.translator(cmd)

	user, err := r.api.Me(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	if err := r.writePlainln("%s: %s", tr.T("cli.me.email"), user.Email); err != nil {
		return err
	}
	return r.writePlainln("%s: %s", tr.T("cli.me.uuid"), user.UUID)
}

// Households lists the account's households.
func (r *Runner) Households(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAPI(ctx, cmd); err != nil {
		return err
	}
	tr := r.translator(cmd)

	households, err := r.api.Households(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(households, true)
	}
	return r.writePlain("%s", formatter.Households(tr, households))
}
