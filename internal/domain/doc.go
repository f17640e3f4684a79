// Package domain defines the orchestrator's core entities: Bead, Task,
// Agent, WorktreeInfo, TokenBudget, QaReport, and the auxiliary
// kanban/poker/attachment types, plus the DomainEvent tagged union C1
// fans out. Types here are value-typed and JSON-serializable; the
// components in internal/{eventbus,orchestrator,rlm,...} own the behavior
// that operates on them.
package domain
