package winpark

import (
	"encoding/json"
	"os"

	"github.com/1broseidon/displaysnap/internal/runtimepath"
)

// CachePath returns where parked-window positions live between applies.
// The cache is per-user runtime state: it does not survive a reboot and
// should not.
func CachePath() (string, error) {
	return runtimepath.Join("displaysnap-windows.json")
}

// cachedWindow remembers where a window lived before its monitor went away.
// MonitorX/MonitorY is the origin of that monitor, the key used to decide
// whether the monitor came back.
type cachedWindow struct {
	ID       uint32 `json:"id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	MonitorX int    `json:"monitor_x"`
	MonitorY int    `json:"monitor_y"`
}

type windowCache struct {
	Windows []cachedWindow `json:"windows"`
}

// loadCache reads the cache, returning an empty one on any error: the cache
// is transient runtime state, never worth failing over.
func loadCache(path string) *windowCache {
	var c windowCache
	data, err := os.ReadFile(path)
	if err != nil {
		return &c
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return &windowCache{}
	}
	return &c
}

func (c *windowCache) put(w cachedWindow) {
	for i := range c.Windows {
		if c.Windows[i].ID == w.ID {
			c.Windows[i] = w
			return
		}
	}
	c.Windows = append(c.Windows, w)
}

func (c *windowCache) save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
