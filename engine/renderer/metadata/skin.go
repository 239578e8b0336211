package metadata

// SkinID names a material/texture bundle registered with the render device.
type SkinID string

// NoSkin is the Bound State at the start of every pass.
const NoSkin SkinID = ""
