package repair

import (
	"context"
	"fmt"
)

// ID identifies an action. Declaration order is listing order.
type ID int

const (
	// NoAction marks an attribute without a remediation.
	NoAction ID = iota
	KernelLockdown
	IOMMU
)

// String returns the action name for known IDs.
func (id ID) String() string {
	switch id {
	case NoAction:
		return "none"
	case KernelLockdown:
		return "kernel-lockdown"
	case IOMMU:
		return "iommu"
	default:
		return fmt.Sprintf("ID(%d)", int(id))
	}
}

// Handler applies and reverts one remediation. Both methods must be
// idempotent, and Revert of a never-applied remediation succeeds.
type Handler interface {
	Apply(ctx context.Context) error
	Revert(ctx context.Context) error
}

// Action binds an ID and a name to a Handler.
type Action struct {
	ID          ID
	Name        string
	AttributeID string
	Description string
	Handler     Handler
}

// Toggler adds or removes a kernel argument. *bootparam.Editor implements it.
type Toggler interface {
	Toggle(ctx context.Context, enable bool, argument string) (bool, error)
}

// BootParam is a Handler that adds a kernel argument on Apply and removes it
// on Revert.
type BootParam struct {
	Argument string
	toggler  Toggler
}

// NewBootParam returns a BootParam handler for argument.
func NewBootParam(t Toggler, argument string) *BootParam {
	return &BootParam{Argument: argument, toggler: t}
}

// Apply adds the argument.
func (b *BootParam) Apply(ctx context.Context) error {
	_, err := b.toggler.Toggle(ctx, true, b.Argument)
	return err
}

// Revert removes the argument.
func (b *BootParam) Revert(ctx context.Context) error {
	_, err := b.toggler.Toggle(ctx, false, b.Argument)
	return err
}

// Kernel arguments set by the built-in actions.
const (
	LockdownArgument = "lockdown=confidentiality"
	IOMMUArgument    = "iommu=force"
)

// builtinActions returns the action table in declaration order.
func builtinActions(t Toggler) []Action {
	return []Action{
		{
			ID:          KernelLockdown,
			Name:        KernelLockdown.String(),
			AttributeID: AttrKernelLockdown,
			Description: "Enable kernel lockdown in confidentiality mode",
			Handler:     NewBootParam(t, LockdownArgument),
		},
		{
			ID:          IOMMU,
			Name:        IOMMU.String(),
			AttributeID: AttrIOMMU,
			Description: "Force the IOMMU on",
			Handler:     NewBootParam(t, IOMMUArgument),
		},
	}
}
