package timezone

// Embedded so conversions never depend on the host system's zoneinfo files.
import _ "time/tzdata"
