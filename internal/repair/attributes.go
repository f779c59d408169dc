package repair

// fwupd host security attribute identifiers.
const (
	AttrPrebootDMA             = "org.fwupd.hsi.PrebootDma"
	AttrEncryptedRAM           = "org.fwupd.hsi.EncryptedRam"
	AttrFwupdAttestation       = "org.fwupd.hsi.Fwupd.Attestation"
	AttrFwupdPlugins           = "org.fwupd.hsi.Fwupd.Plugins"
	AttrFwupdUpdates           = "org.fwupd.hsi.Fwupd.Updates"
	AttrIntelBootguardEnabled  = "org.fwupd.hsi.IntelBootguard.Enabled"
	AttrIntelBootguardVerified = "org.fwupd.hsi.IntelBootguard.Verified"
	AttrIntelBootguardACM      = "org.fwupd.hsi.IntelBootguard.Acm"
	AttrIntelBootguardPolicy   = "org.fwupd.hsi.IntelBootguard.Policy"
	AttrIntelBootguardOTP      = "org.fwupd.hsi.IntelBootguard.Otp"
	AttrIntelCETEnabled        = "org.fwupd.hsi.IntelCet.Enabled"
	AttrIntelCETActive         = "org.fwupd.hsi.IntelCet.Active"
	AttrIntelSMAP              = "org.fwupd.hsi.IntelSmap"
	AttrIOMMU                  = "org.fwupd.hsi.Iommu"
	AttrKernelLockdown         = "org.fwupd.hsi.Kernel.Lockdown"
	AttrKernelSwap             = "org.fwupd.hsi.Kernel.Swap"
	AttrKernelTainted          = "org.fwupd.hsi.Kernel.Tainted"
	AttrMEIManufacturingMode   = "org.fwupd.hsi.Mei.ManufacturingMode"
	AttrMEIOverrideStrap       = "org.fwupd.hsi.Mei.OverrideStrap"
	AttrMEIKeyManifest         = "org.fwupd.hsi.Mei.KeyManifest"
	AttrMEIVersion             = "org.fwupd.hsi.Mei.Version"
	AttrSPIBioswe              = "org.fwupd.hsi.Spi.Bioswe"
	AttrSPIBle                 = "org.fwupd.hsi.Spi.Ble"
	AttrSPISmmBwp              = "org.fwupd.hsi.Spi.SmmBwp"
	AttrSPIDescriptor          = "org.fwupd.hsi.Spi.Descriptor"
	AttrSuspendToIdle          = "org.fwupd.hsi.SuspendToIdle"
	AttrSuspendToRAM           = "org.fwupd.hsi.SuspendToRam"
	AttrTPMEmptyPCR            = "org.fwupd.hsi.Tpm.EmptyPcr"
	AttrTPMReconstructionPCR0  = "org.fwupd.hsi.Tpm.ReconstructionPcr0"
	AttrTPMVersion20           = "org.fwupd.hsi.Tpm.Version20"
	AttrTPM20Enabled           = "org.fwupd.hsi.Tpm20.Enabled"
	AttrUEFISecureBoot         = "org.fwupd.hsi.Uefi.SecureBoot"
	AttrUEFIPK                 = "org.fwupd.hsi.Uefi.Pk"
	AttrPlatformDebugEnabled   = "org.fwupd.hsi.PlatformDebugEnabled"
	AttrPlatformFused          = "org.fwupd.hsi.PlatformFused"
	AttrPlatformDebugLocked    = "org.fwupd.hsi.PlatformDebugLocked"
	AttrSupportedCPU           = "org.fwupd.hsi.SupportedCpu"
	AttrAMDRollbackProtection  = "org.fwupd.hsi.Amd.RollbackProtection"
	AttrAMDSPIWriteProtection  = "org.fwupd.hsi.Amd.SpiWriteProtection"
	AttrAMDSPIReplayProtection = "org.fwupd.hsi.Amd.SpiReplayProtection"
	AttrHostEmulation          = "org.fwupd.hsi.HostEmulation"
	AttrBIOSRollbackProtection = "org.fwupd.hsi.BiosRollbackProtection"
)

// Attribute is a known security attribute and the action, if any, that
// repairs it.
type Attribute struct {
	ID     string
	Action ID // NoAction when unsupported

	// UndoValue makes the attribute value "undo" select Revert.
	UndoValue bool
}

// Supported reports whether the attribute has a remediation.
func (a Attribute) Supported() bool {
	return a.Action != NoAction
}

func unsupportedAttr(id string) Attribute {
	return Attribute{ID: id, Action: NoAction}
}

// attributeTable lists every attribute the registry knows, in display order.
func attributeTable() []Attribute {
	return []Attribute{
		unsupportedAttr(AttrPrebootDMA),
		unsupportedAttr(AttrEncryptedRAM),
		unsupportedAttr(AttrFwupdAttestation),
		unsupportedAttr(AttrFwupdPlugins),
		unsupportedAttr(AttrFwupdUpdates),
		unsupportedAttr(AttrIntelBootguardEnabled),
		unsupportedAttr(AttrIntelBootguardVerified),
		unsupportedAttr(AttrIntelBootguardACM),
		unsupportedAttr(AttrIntelBootguardPolicy),
		unsupportedAttr(AttrIntelBootguardOTP),
		unsupportedAttr(AttrIntelCETEnabled),
		unsupportedAttr(AttrIntelCETActive),
		unsupportedAttr(AttrIntelSMAP),
		{ID: AttrIOMMU, Action: IOMMU, UndoValue: true},
		{ID: AttrKernelLockdown, Action: KernelLockdown, UndoValue: true},
		unsupportedAttr(AttrKernelSwap),
		unsupportedAttr(AttrKernelTainted),
		unsupportedAttr(AttrMEIManufacturingMode),
		unsupportedAttr(AttrMEIOverrideStrap),
		unsupportedAttr(AttrMEIKeyManifest),
		unsupportedAttr(AttrMEIVersion),
		unsupportedAttr(AttrSPIBioswe),
		unsupportedAttr(AttrSPIBle),
		unsupportedAttr(AttrSPISmmBwp),
		unsupportedAttr(AttrSPIDescriptor),
		unsupportedAttr(AttrSuspendToIdle),
		unsupportedAttr(AttrSuspendToRAM),
		unsupportedAttr(AttrTPMEmptyPCR),
		unsupportedAttr(AttrTPMReconstructionPCR0),
		unsupportedAttr(AttrTPMVersion20),
		unsupportedAttr(AttrTPM20Enabled),
		unsupportedAttr(AttrUEFISecureBoot),
		unsupportedAttr(AttrPlatformDebugEnabled),
		unsupportedAttr(AttrPlatformFused),
		unsupportedAttr(AttrPlatformDebugLocked),
		unsupportedAttr(AttrUEFIPK),
		unsupportedAttr(AttrSupportedCPU),
		unsupportedAttr(AttrAMDRollbackProtection),
		unsupportedAttr(AttrAMDSPIWriteProtection),
		unsupportedAttr(AttrAMDSPIReplayProtection),
		unsupportedAttr(AttrHostEmulation),
		unsupportedAttr(AttrBIOSRollbackProtection),
	}
}
