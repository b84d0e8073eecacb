//go:build windows

package builder

import (
	"github.com/heaths/go-vssetup"
	"github.com/qobs-build/vsgen/internal/msg"
)

// detectToolset asks the Visual Studio setup configuration for every installed instance
// and picks the toolset of the newest one
func detectToolset() (string, bool) {
	instances, err := vssetup.Instances(false)
	if err != nil {
		msg.Debug("query Visual Studio instances: %v", err)
		return "", false
	}

	var versions []string
	for _, instance := range instances {
		version, err := func() (string, error) {
			defer instance.Close()
			product, err := instance.Product()
			if err != nil {
				return "", err
			}
			defer product.Close()
			return product.Version()
		}()
		if err != nil {
			msg.Debug("read Visual Studio instance version: %v", err)
			continue
		}
		versions = append(versions, version)
	}
	return newestToolset(versions)
}
