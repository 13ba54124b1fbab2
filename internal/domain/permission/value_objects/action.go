package value_objects

import "fmt"

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionCancel Action = "cancel"
	ActionRefund Action = "refund"
	ActionAssign Action = "assign"
	ActionManage Action = "manage"
	ActionExport Action = "export"
)

var validActions = map[Action]bool{
	ActionCreate: true,
	ActionRead:   true,
	ActionUpdate: true,
	ActionDelete: true,
	ActionCancel: true,
	ActionRefund: true,
	ActionAssign: true,
	ActionManage: true,
	ActionExport: true,
}

func NewAction(action string) (Action, error) {
	if action == "" {
		return "", fmt.Errorf("action cannot be empty")
	}
	a := Action(action)
	if !validActions[a] {
		return "", fmt.Errorf("invalid action: %s", action)
	}
	return a, nil
}

func (a Action) String() string {
	return string(a)
}
