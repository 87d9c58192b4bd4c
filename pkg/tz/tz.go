package tz

import "time"

// IST is India Standard Time (UTC+05:30, no DST), the zone organizers type
// event dates in.
var IST = time.FixedZone("IST", 5*3600+30*60)
