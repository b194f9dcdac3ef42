package model

// EWKTPrefix tags every stored geometry with its spatial reference
const EWKTPrefix = "SRID=4326;"

// OutnameTimeLayout is the compact acquisition time used in file names and outname bases
const OutnameTimeLayout = "20060102T150405"
