package constraint

import (
	"vrpsolve/internal/model"
)

// Order shrinks the candidate window for tasks with explicit priorities: a
// task with a lower order value must precede any explicitly ordered task with
// a higher one in the same route. Tasks without an order stay unconstrained;
// soft steering of those lives in the tour-order objective.
type Order struct {
	Base
}

func NewOrder() *Order { return &Order{} }

func (*Order) Name() string { return "order" }
func (*Order) Kind() Kind   { return Hard }

func (*Order) EvaluateActivity(mc *MoveContext) *Violation {
	t := mc.Target.Task()
	if t == nil || t.EffectiveOrder() == model.NoOrder {
		return nil
	}
	order := t.EffectiveOrder()
	for i, a := range mc.Route.Activities {
		o := a.Task()
		if o == nil || o.EffectiveOrder() == model.NoOrder {
			continue
		}
		if i < mc.Position && o.EffectiveOrder() > order {
			return &Violation{Code: CodeTaskOrder}
		}
		if i >= mc.Position && o.EffectiveOrder() < order {
			return &Violation{Code: CodeTaskOrder}
		}
	}
	return nil
}
