// Package export converts enriched trajectories into GeoJSON for desktop GIS
// viewers.
//
// Line export stays in image-pixel coordinates. Point export maps pixels to
// lon/lat through a fixed linear stub transform; it is a visualisation aid
// and carries no geodetic accuracy.
package export
