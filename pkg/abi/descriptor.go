// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package abi

// Descriptor mirrors the C jam_descriptor struct filled by Report.
// Every text field points into library memory.
type Descriptor struct {
	PluginType       *byte
	Product          *byte
	DescriptionLong  *byte
	DescriptionShort *byte
	PluginID         uint64
}

// PluginInfo is a host-owned copy of a Descriptor.
type PluginInfo struct {
	Type             string `json:"plugin_type"`
	Product          string `json:"product"`
	DescriptionLong  string `json:"description_long"`
	DescriptionShort string `json:"description_short"`
	ID               uint64 `json:"plugin_id"`
	// TypePresent is false when the plugin left plugin_type null.
	TypePresent bool `json:"-"`
}

// Info copies the descriptor text out of library memory.
// Call it before anything else can call into the library.
func (d *Descriptor) Info() PluginInfo {
	return PluginInfo{
		Type:             BorrowedAt(d.PluginType).Copy(),
		Product:          BorrowedAt(d.Product).Copy(),
		DescriptionLong:  BorrowedAt(d.DescriptionLong).Copy(),
		DescriptionShort: BorrowedAt(d.DescriptionShort).Copy(),
		ID:               d.PluginID,
		TypePresent:      d.PluginType != nil,
	}
}

// IsControl reports whether the plugin declared itself a control plugin.
// The comparison is case-sensitive.
func (i PluginInfo) IsControl() bool {
	return i.TypePresent && i.Type == PluginTypeControl
}
