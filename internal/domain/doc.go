// Package domain models daily weather observations and road-traffic counts
// for named survey locations.
//
// # Data Sources
//
// Weather observations come from the Japan Meteorological Agency (JMA)
// historical data pages (daily_s1.php), one HTML page per station per
// month. Traffic observations come from road traffic census feeds as CSV,
// one row per survey point per hour bucket.
//
// # JMA Page Conventions
//
// Station identity:
//
//	Each station is addressed by a (prec_no, block_no) code pair, e.g.
//	Tokyo = (44, 47662). The stored location_code is "<prec_no>-<block_no>".
//
// Table layout:
//
//	The daily table carries class "data2_s", a two-row header, and one row
//	per calendar day with 20+ cells. Day-of-month sits in column 0; the
//	measurement columns used here are avg temp (6), max temp (7), min temp
//	(8), precipitation (11), max wind speed (15), sunshine hours (18), and
//	average humidity (20). Footer rows have a non-numeric first cell.
//
// Missing and annotated values:
//
//	"--", "×", "///" and the empty cell all mean "not measured" and map to
//	nil, never to zero. Measured values may carry trailing flag symbols:
//	"]" (value from an incomplete period), ")" (quasi-normal value), "#"
//	(suspect or estimated value). Flags are stripped before conversion and
//	anything still non-numeric is treated as missing.
//
// # Grains
//
// Weather is one row per (location, day); traffic is one row per
// (location, day, hour bucket) with bucket labels like "7-8". The two are
// reconciled at query time by summing a day's bucket counts and averaging
// its travel speeds, then left-joining onto the weather day; see
// [ReconciledDay].
package domain
