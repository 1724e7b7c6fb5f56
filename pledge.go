package viewz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
)

// Project is the subset of a crowdfunding project the pledge screen needs.
type Project struct {
	ID      int    `json:"id" validate:"gte=0"`
	Name    string `json:"name"`
	Country string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// Reward is the reward tier a backer is pledging to.
type Reward struct {
	ID      int     `json:"id" validate:"gte=0"`
	Minimum float64 `json:"minimum" validate:"gte=0"`

	// EstimatedDeliveryOn is the estimated delivery time in epoch seconds.
	EstimatedDeliveryOn *int64 `json:"estimated_delivery_on,omitempty"`
}

// PledgeDisplay is the summary shown at the top of the pledge screen.
type PledgeDisplay struct {
	Amount       float64
	Currency     string
	DeliveryDate string
}

// PledgeInputs receives the pledge screen's configuration and lifecycle.
type PledgeInputs interface {
	Configure(project Project, reward Reward)
	ViewLoaded()
}

// PledgeOutputs exposes the pledge summary.
type PledgeOutputs interface {
	Display() *Signal[PledgeDisplay]
}

type pledgeSelection struct {
	project Project
	reward  Reward
}

// Pledge is the view model behind the pledge screen. It emits a summary once
// it has been configured and its view has loaded, and again for each later
// configuration.
type Pledge struct {
	env    Environment
	ctx    context.Context
	cancel context.CancelFunc

	lastError atomic.Pointer[error]

	mu        sync.Mutex
	closed    bool
	selection *pledgeSelection
	pending   bool
	loaded    bool

	display Signal[PledgeDisplay]
}

// NewPledge creates a pledge view model bound to ctx.
func NewPledge(ctx context.Context, env Environment) *Pledge {
	ctx, cancel := context.WithCancel(ctx)
	return &Pledge{
		env:    env.withDefaults(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Inputs returns the command side of the view model.
func (p *Pledge) Inputs() PledgeInputs { return p }

// Outputs returns the observable side of the view model.
func (p *Pledge) Outputs() PledgeOutputs { return p }

// Display emits the pledge summary.
func (p *Pledge) Display() *Signal[PledgeDisplay] { return &p.display }

// LastError returns the last configuration validation warning, or nil.
func (p *Pledge) LastError() error {
	ptr := p.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// Configure sets the project and reward being pledged to. A pair that fails
// validation is recorded in LastError and signalled, but is still displayed.
func (p *Pledge) Configure(project Project, reward Reward) {
	if err := validatePledge(project, reward); err != nil {
		e := err
		p.lastError.Store(&e)
		capitan.Warn(p.ctx, PledgeConfigureRejected,
			KeyError.Field(err.Error()),
			KeyCountry.Field(project.Country),
		)
	}

	p.dispatch(func(out *outbox) {
		p.selection = &pledgeSelection{project: project, reward: reward}
		p.pending = true
		p.release(out)
	})
}

// ViewLoaded marks the view as loaded. Only the first call has an effect.
func (p *Pledge) ViewLoaded() {
	p.dispatch(func(out *outbox) {
		p.loaded = true
		p.release(out)
	})
}

// Close releases the view model and drops its observers.
func (p *Pledge) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.display.reset()
}

func (p *Pledge) dispatch(fn func(out *outbox)) {
	var out outbox

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	fn(&out)
	p.mu.Unlock()

	out.flush()
}

// release emits the pending selection once the view has loaded.
func (p *Pledge) release(out *outbox) {
	if !p.loaded || !p.pending || p.selection == nil {
		return
	}
	p.pending = false

	sel := *p.selection
	d := summarize(p.env.Format, sel.project, sel.reward)
	send(out, &p.display, d)
	out.add(func() {
		capitan.Emit(p.ctx, PledgeDisplayed,
			KeyCountry.Field(sel.project.Country),
			KeyRewardID.Field(sel.reward.ID),
		)
	})
}

// summarize builds the display tuple for a project and reward.
func summarize(format Formatter, project Project, reward Reward) PledgeDisplay {
	d := PledgeDisplay{
		Amount:   reward.Minimum,
		Currency: strings.TrimSpace(format.CurrencySymbol(project.Country)),
	}
	if reward.EstimatedDeliveryOn != nil {
		d.DeliveryDate = format.FormatDate(*reward.EstimatedDeliveryOn, DeliveryDateLayout, time.UTC)
	}
	return d
}

func validatePledge(project Project, reward Reward) error {
	if err := validate.Struct(project); err != nil {
		return fmt.Errorf("invalid project: %w", err)
	}
	if err := validate.Struct(reward); err != nil {
		return fmt.Errorf("invalid reward: %w", err)
	}
	return nil
}

var (
	_ PledgeInputs  = (*Pledge)(nil)
	_ PledgeOutputs = (*Pledge)(nil)
)
