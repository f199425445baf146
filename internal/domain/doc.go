// Package domain computes Wet-Bulb Globe Temperature (WBGT) over gridded
// meteorological analysis fields.
//
// # Data Source
//
// Input grids originate from an upstream analysis collector that publishes
// one flat JSON message per time step to the Kafka source topic. Each message
// carries four co-registered row-major arrays (air temperature, relative
// humidity, downward shortwave radiation, wind speed) plus grid shape and a
// missing-value sentinel. See [RawGridRecord].
//
// # WBGT
//
// WBGT is a composite heat-stress index combining three temperatures:
//
//	outdoor: WBGT = 0.7·Tnw + 0.2·Tg + 0.1·Ta
//	indoor:  WBGT = 0.7·Tnw + 0.3·Tg
//
// where Tnw is the natural wet-bulb temperature, Tg the black-globe
// temperature, and Ta the dry-air temperature, all in °C.
//
// Tg is the only component that requires iteration: a matte black sphere in
// sunlight settles at the temperature where absorbed radiation balances
// emitted radiation plus convective exchange with the surrounding air.
// [SolveGlobeGrid] finds that equilibrium per cell with Newton–Raphson; see
// the energy balance in globe.go.
//
// Tnw uses Stull's 2011 empirical fit ([WetBulbStull]), accurate to roughly
// 0.3 °C near standard surface pressure. It needs no iteration.
//
// # Missing Values
//
// In-memory grids mark missing cells with NaN ([Field.IsMissing]); on the
// wire the sentinel declared in the message (conventionally -9999) is used,
// since JSON has no NaN literal. A cell missing in any input grid is missing
// in every derived grid. Cells where the solver hits a degenerate (near-zero)
// derivative are also emitted as missing rather than as a garbage value.
//
// # Heat-Risk Classification
//
// Products carry per-grid cell counts of a four-level heat-risk category
// derived from WBGT, with thresholds informed by ACSM and NWS heat guidance:
// low <26 °C, elevated <29 °C, high <32 °C, extreme ≥32 °C. The four-level
// scale is a project-specific simplification for user-facing queries.
//
// # ID Generation
//
// Product IDs are deterministic SHA-256 hashes of grid_id|valid_time|shape.
// This enables idempotent upserts downstream (ON CONFLICT DO NOTHING) and
// replay safety without distributed coordination: redelivery of the same
// analysis message produces the same product ID. See [generateID].
package domain
