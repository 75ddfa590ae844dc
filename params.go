package routegen

// layer is one named parameter overlay in the merge order. Precedence is
// carried entirely by position: mergeLayers folds layers left to right and
// later layers overwrite earlier keys. Modelling the merge as an explicit
// layer list keeps the override order in one place instead of scattered
// across call sites.
type layer struct {
	name   string
	values map[string]any
}

func mergeLayers(layers ...layer) map[string]any {
	out := make(map[string]any)
	for _, l := range layers {
		for k, v := range l.values {
			out[k] = v
		}
	}
	return out
}

// copyMap returns a top-level copy. Values are shared: overlays are opaque
// data and the engine never reaches inside them.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
