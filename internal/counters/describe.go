package counters

import "context"

// CategoryInfo lists the counters and live instances of a category.
type CategoryInfo struct {
	Name      string   `json:"name"`
	Help      string   `json:"help,omitempty"`
	Counters  []string `json:"counters"`
	Instances []string `json:"instances,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Describe lists every category of src. A failure to list the instances of a
// category is reported in its Error field.
func Describe(ctx context.Context, src Source) []CategoryInfo {
	names := src.Categories()
	out := make([]CategoryInfo, 0, len(names))
	for _, name := range names {
		info := CategoryInfo{Name: name, Counters: src.Counters(name)}
		if set, ok := src.(*Set); ok {
			if c, ok := set.Category(name); ok {
				info.Help = c.Help
			}
		}
		instances, err := src.Instances(ctx, name)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Instances = instances
		}
		out = append(out, info)
	}
	return out
}
