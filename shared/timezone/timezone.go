package timezone

import (
	"rental/config"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTimezone = "UTC"

var appLocation = time.UTC

func init() {
	appLocation = Load(config.Get().App.Timezone)
}

// Load resolves an IANA timezone name, falling back to UTC when it is empty or unknown.
func Load(name string) *time.Location {
	if name == "" {
		log.Warn().Msg("No timezone configured, using UTC as default")

		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Error().
			Err(err).
			Str("timezone", name).
			Str("fallback", defaultTimezone).
			Msg("Failed to load timezone, use an IANA name such as 'Asia/Jakarta'")

		return time.UTC
	}

	log.Info().Str("timezone", loc.String()).Msg("Application timezone initialized")

	return loc
}

func Now() time.Time {
	return time.Now().In(appLocation)
}

func ToAppTime(t time.Time) time.Time {
	return t.In(appLocation)
}

func GetLocation() *time.Location {
	return appLocation
}

// Parse reads value as wall-clock time in the application timezone.
func Parse(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, appLocation) //nolint:wrapcheck
}

func Format(t time.Time, layout string) string {
	return ToAppTime(t).Format(layout)
}
