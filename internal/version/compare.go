package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckMinimumVersion checks that engineVersion satisfies the minimum
// version a configuration asks for.
//
// Rules:
//   - An empty minimum accepts any engine
//   - If the engine is "main" (development build), the check is skipped
//   - Otherwise the engine must be >= minimum; prerelease engines are
//     compared on their release part
//
// Examples:
//   - Engine 1.2.0, minimum 1.2.0 -> OK
//   - Engine 1.3.1, minimum 1.2.0 -> OK
//   - Engine 1.1.9, minimum 1.2.0 -> ERROR
//   - Engine main, minimum 9.0.0 -> OK
func CheckMinimumVersion(engineVersion, minimumVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	minimumVersion = strings.TrimPrefix(minimumVersion, "v")

	if minimumVersion == "" || engineVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	constraint, err := semver.NewConstraint(">= " + minimumVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum version '%s': %w", minimumVersion, err)
	}

	release, err := engineSemver.SetPrerelease("")
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	if !constraint.Check(&release) {
		return fmt.Errorf("engine version %s is older than the required minimum %s",
			engineSemver.String(), minimumVersion)
	}

	return nil
}
