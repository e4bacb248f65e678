package domain

// TaskSums is the subtree aggregate of a task for one date window. For a leaf
// it covers the task's own amounts; for a container, all its descendants.
type TaskSums struct {
	Task                 *Task
	IsLeaf               bool
	BudgetSum            int64
	InitiallyConsumedSum int64
	TodoSum              int64
	Contributions        ContributionSums
}

// Delta is budget − initially consumed − consumed − todo. Negative means the
// task is expected to overrun.
func (s *TaskSums) Delta() int64 {
	return s.BudgetSum - s.InitiallyConsumedSum - s.Contributions.ConsumedSum - s.TodoSum
}

// Plus returns the element-wise sum of the numeric fields. Task and IsLeaf
// are taken from s.
func (s *TaskSums) Plus(o *TaskSums) *TaskSums {
	return &TaskSums{
		Task:                 s.Task,
		IsLeaf:               s.IsLeaf,
		BudgetSum:            s.BudgetSum + o.BudgetSum,
		InitiallyConsumedSum: s.InitiallyConsumedSum + o.InitiallyConsumedSum,
		TodoSum:              s.TodoSum + o.TodoSum,
		Contributions:        s.Contributions.Add(o.Contributions),
	}
}
