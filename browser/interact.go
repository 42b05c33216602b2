package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/use-agent/scout/models"
)

// interactionTimeout is the per-step deadline.
const interactionTimeout = 10 * time.Second

// runInteractions executes the ordered interaction list on the page.
// The first failing step aborts with an error naming the step.
func runInteractions(ctx context.Context, page *rod.Page, steps []Interaction) error {
	for i, step := range steps {
		if err := runInteraction(ctx, page, step); err != nil {
			return models.NewError(
				models.ErrCodeNavigation,
				fmt.Sprintf("interaction %d (%s) failed: %v", i, step.Type, err),
				err,
			)
		}
	}
	return nil
}

func runInteraction(ctx context.Context, page *rod.Page, step Interaction) error {
	stepCtx, cancel := context.WithTimeout(ctx, interactionTimeout)
	defer cancel()

	p := page.Context(stepCtx)

	switch step.Type {
	case "fill":
		if step.Selector == "" {
			return fmt.Errorf("fill requires a selector")
		}
		el, err := p.Element(step.Selector)
		if err != nil {
			return fmt.Errorf("element %q not found: %w", step.Selector, err)
		}
		if err := el.SelectAllText(); err == nil {
			_ = el.Input("")
		}
		return el.Input(step.Value)

	case "submit":
		// Prefer clicking an explicit submit control; fall back to Enter
		// in the focused field.
		if step.Selector != "" {
			if el, err := p.Element(step.Selector); err == nil {
				return el.Click(proto.InputMouseButtonLeft, 1)
			}
		}
		return p.Keyboard.Press(input.Enter)

	case "click":
		if step.Selector == "" {
			return fmt.Errorf("click requires a selector")
		}
		el, err := p.Element(step.Selector)
		if err != nil {
			return fmt.Errorf("element %q not found: %w", step.Selector, err)
		}
		return el.Click(proto.InputMouseButtonLeft, 1)

	case "wait":
		if step.Selector != "" {
			return p.WaitElementsMoreThan(step.Selector, 0)
		}
		if step.Milliseconds > 0 {
			select {
			case <-time.After(time.Duration(step.Milliseconds) * time.Millisecond):
				return nil
			case <-stepCtx.Done():
				return stepCtx.Err()
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown interaction type: %s", step.Type)
	}
}
