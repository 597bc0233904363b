package options

// DropOptions is the caller-supplied configuration of a drop target.
type DropOptions struct {
	// Click enables the file chooser fallback: clicking a target opens a
	// hidden input[type=file].
	Click bool `json:"click,omitempty" yaml:"click,omitempty"`

	// DropEffect overrides the platform's drop effect hint on dragenter.
	// One of copy, move, link or all; anything else is ignored.
	DropEffect string `json:"dropEffect,omitempty" yaml:"dropEffect,omitempty"`
}

// DragOptions is the caller-supplied configuration of a drag source.
type DragOptions struct {
	// EffectAllowed restricts the operations offered to drop targets.
	// One of copy, move, link, copyMove, copyLink, linkMove or all.
	EffectAllowed string `json:"effectAllowed,omitempty" yaml:"effectAllowed,omitempty"`

	// Data is written into the transfer on dragstart. See NormalizeData for
	// the accepted shapes.
	Data any `json:"data,omitempty" yaml:"data,omitempty"`
}

// DropConfig is the canonical drop configuration.
type DropConfig struct {
	Click      bool
	DropEffect Effect
}

// DragConfig is the canonical drag configuration.
type DragConfig struct {
	EffectAllowed Effect
	Data          Data
}

// NormalizeDrop canonicalizes drop options.
func NormalizeDrop(opts DropOptions) DropConfig {
	return DropConfig{
		Click:      opts.Click,
		DropEffect: NormalizeEffect(opts.DropEffect, dropEffects),
	}
}

// NormalizeDrag canonicalizes drag options.
func NormalizeDrag(opts DragOptions) DragConfig {
	return DragConfig{
		EffectAllowed: NormalizeEffect(opts.EffectAllowed, allowedEffects),
		Data:          NormalizeData(opts.Data),
	}
}
