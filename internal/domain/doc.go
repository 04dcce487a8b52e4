// Package domain models soil-survey horizon data and the derivation of
// post-fire WEPP soil scenarios from it.
//
// # Data Source
//
// Horizon rows come from the USDA NRCS Soil Survey Geographic database
// (SSURGO) or the U.S. General Soil Map (STATSGO2), available at
// https://sdmdataaccess.nrcs.usda.gov/. Each row of the chorizon table is one
// horizon (a depth-bounded layer) of a soil component (cokey). Components are
// grouped into map units (mukey) with a percent composition (comppct_r).
//
// # SSURGO Conventions
//
// Representative values carry an "_r" suffix and any of them may be null:
//
//	hzdepb_r       bottom depth of the horizon, cm
//	dbthirdbar_r   bulk density at 1/3 bar, g/cm3
//	ksat_r         saturated hydraulic conductivity, converted ×3.6 to mm/hr
//	sandtotal_r    total sand, % of the fine earth fraction
//	claytotal_r    total clay, %
//	om_r           organic matter, %
//	ecec_r         effective cation exchange capacity, meq/100g
//	fraggt10_r     rock fragments > 10 mm, % by volume
//	frag3to10_r    rock fragments 3-10 mm, % by volume
//	sieveno10_r    soil passing a #10 sieve (2 mm), % by weight
//	wthirdbar_r    water content at 1/3 bar, %
//	wfifteenbar_r  water content at 15 bar, %
//	sandvf_r       very fine sand, %
//	desgnmaster    master horizon designation ("O", "A", "B", ...)
//
// Null values never fail normalization. Each one is replaced by a named
// default constant and reported as a [FieldDefault] so the caller can warn.
//
// # Rock Correction
//
// Water contents are reported for the fine earth fraction only. Field
// capacity and wilting point are rescaled by the non-rock volume
// (100-rock)/100, and the WEPP rock percentage combines the fragment volumes
// with the material retained on a #10 sieve. Organic ("O") horizons carry no
// rock.
//
// # Restrictive Layers
//
// Horizons conducting less than [MinFlowKsat] mm/hr are treated as
// restrictive: they are not written as flow layers, but the minimum
// conductivity over all horizons is kept and written as the restrictive
// layer at the end of the soil file.
//
// # Fire Severity Scenarios
//
// Five scenarios are derived per component: unburned, low, moderate, high and
// a "normal" baseline. A [Profile] pairs a WEPP file layout with a severity
// multiplier table. The legacy 7778 profile and the versioned 95.7 profile
// use different tables, most visibly for the normal baseline, which scales
// Ki, Kr and Keff in 7778 and is the identity in 95.7.
package domain
