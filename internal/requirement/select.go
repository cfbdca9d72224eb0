package requirement

// Flags are the user-facing strategy switches.
type Flags struct {
	AutoStake    bool `json:"auto_stake"`
	AutoFarm     bool `json:"auto_farm"`
	AutoRepay    bool `json:"auto_repay"`
	AutoBorrow   bool `json:"auto_borrow"`
	MarketInfo   bool `json:"market_info"`
	ProtocolInfo bool `json:"protocol_info"`
	AccountInfo  bool `json:"account_info"`
}

// Tags maps the enabled flags to strategy tags.
func (f Flags) Tags() []Tag {
	var out []Tag
	if f.AutoStake {
		out = append(out, TagAutoStake)
	}
	if f.AutoFarm {
		out = append(out, TagAutoFarm)
	}
	if f.AutoRepay {
		out = append(out, TagAutoRepay)
	}
	if f.AutoBorrow {
		out = append(out, TagAutoBorrow)
	}
	if f.MarketInfo {
		out = append(out, TagMarket)
	}
	if f.ProtocolInfo {
		out = append(out, TagAnchor)
	}
	if f.AccountInfo {
		out = append(out, TagAccount)
	}
	return out
}

// Select returns the catalog entries that depend on at least one enabled tag.
// Catalog order is preserved and a key appears at most once.
func Select(catalog []Entry, enabled []Tag) []Entry {
	if len(enabled) == 0 {
		return nil
	}
	set := make(map[Tag]struct{}, len(enabled))
	for _, t := range enabled {
		set[t] = struct{}{}
	}

	seen := make(map[string]struct{}, len(catalog))
	var active []Entry
	for _, e := range catalog {
		if _, dup := seen[e.Key]; dup {
			continue
		}
		if e.DependsOnAny(set) {
			seen[e.Key] = struct{}{}
			active = append(active, e)
		}
	}
	return active
}
