// Package repair resolves failing host security attributes to remediation
// actions and executes them.
//
// A Registry is built once at startup and never mutated. It answers two
// kinds of lookup over the same action table:
//
//   - ByName, used by the command line (kernel-lockdown, iommu)
//   - ByAttribute, used by an auditing engine that reports fwupd HSI
//     attribute identifiers such as org.fwupd.hsi.Kernel.Lockdown
//
// Attribute identifiers that are known but have no remediation resolve to
// ErrUnsupported, which is distinct from ErrNotFound for identifiers that are
// not recognized at all.
//
// The Engine runs the resolved action's Apply or Revert, serializing
// executions of the same action, and reports the outcome as a *Result or an
// *Error carrying a Kind and any captured tool output.
package repair
