// Package detect finds leaked secrets in page bodies and exposed sensitive
// files on a site.
//
// Two detectors live here:
//   - Registry: a flat, ordered catalogue of named regular expressions run
//     against every fetched page. A pattern yields at most one finding per
//     page and the evidence is the pattern source, so captured secrets are
//     never copied into reports.
//   - Prober: requests a fixed catalogue of conventionally sensitive paths
//     relative to an origin and records those served with a non-trivial body.
//
// Both catalogues are data. They can be replaced or extended from the
// configuration file without touching the matching code.
package detect
