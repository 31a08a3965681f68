// Package mity provides the core types shared across the mITyFactory
// workflow engine: the mutable WorkflowContext threaded through every
// station, the stack/IaC configuration attached to it, and the sentinel
// errors the engine packages wrap.
//
// The engine itself lives in the subpackages:
//
//   - station: the Station contract, result/artifact types, and the
//     name-keyed registry.
//   - workflow: workflow definitions, the persisted ExecutionLog, and
//     the Executor with resume support.
//   - store/fs, store/memory: LogStore implementations.
//   - engine: the legacy fixed-pipeline engine kept for backward
//     compatibility.
//   - git, runner: collaborators used by concrete stations.
//
// # Quick start
//
//	reg := station.NewRegistry()
//	reg.Register(myScaffoldStation)
//
//	exec := workflow.NewExecutor(reg, fs.New(workspace))
//	wf := workflow.CreateApp()
//	wc := mity.NewWorkflowContext(workspace, "my-app", mity.StackRustAPI)
//
//	log, err := exec.Execute(ctx, wf, wc)
//	if err != nil && log.CanResume() {
//	    log, err = exec.Resume(ctx, log)
//	}
package mity
