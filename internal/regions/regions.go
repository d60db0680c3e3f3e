package regions

import "errors"

// ErrNotFound is returned when a region id has no entry in the directory.
var ErrNotFound = errors.New("unknown region id")

// AreaType is the area vocabulary used by the health-data API.
type AreaType string

const (
	AreaTypeNation AreaType = "nation"
	AreaTypeRegion AreaType = "region"
)

// Descriptor maps one grid region id onto the vocabularies of both upstream
// APIs: the carbon-intensity provider's region name and the health-data
// provider's (areaName, areaType) pair.
type Descriptor struct {
	CarbonRegionName string
	CovidAreaName    string
	CovidAreaType    AreaType
}

// Directory is the static lookup table for the 17 UK grid sub-regions.
// It is built once at startup and is read-only afterwards, so it can be
// shared across concurrent requests without locking.
type Directory struct {
	byID map[int]Descriptor
}

// NewDirectory builds the directory from the fixed region table.
func NewDirectory() *Directory {
	return &Directory{
		byID: map[int]Descriptor{
			1:  {CarbonRegionName: "North Scotland", CovidAreaName: "Scotland", CovidAreaType: AreaTypeNation},
			2:  {CarbonRegionName: "South Scotland", CovidAreaName: "Scotland", CovidAreaType: AreaTypeNation},
			3:  {CarbonRegionName: "North West England", CovidAreaName: "North West", CovidAreaType: AreaTypeRegion},
			4:  {CarbonRegionName: "North East England", CovidAreaName: "North East", CovidAreaType: AreaTypeRegion},
			5:  {CarbonRegionName: "Yorkshire", CovidAreaName: "Yorkshire and The Humber", CovidAreaType: AreaTypeRegion},
			6:  {CarbonRegionName: "North Wales", CovidAreaName: "Wales", CovidAreaType: AreaTypeNation},
			7:  {CarbonRegionName: "South Wales", CovidAreaName: "Wales", CovidAreaType: AreaTypeNation},
			8:  {CarbonRegionName: "West Midlands", CovidAreaName: "West Midlands", CovidAreaType: AreaTypeRegion},
			9:  {CarbonRegionName: "East Midlands", CovidAreaName: "East Midlands", CovidAreaType: AreaTypeRegion},
			10: {CarbonRegionName: "East England", CovidAreaName: "East of England", CovidAreaType: AreaTypeRegion},
			11: {CarbonRegionName: "South West England", CovidAreaName: "South West", CovidAreaType: AreaTypeRegion},
			12: {CarbonRegionName: "South England", CovidAreaName: "England", CovidAreaType: AreaTypeNation},
			13: {CarbonRegionName: "London", CovidAreaName: "London", CovidAreaType: AreaTypeRegion},
			14: {CarbonRegionName: "South East England", CovidAreaName: "South East", CovidAreaType: AreaTypeRegion},
			15: {CarbonRegionName: "England", CovidAreaName: "England", CovidAreaType: AreaTypeNation},
			16: {CarbonRegionName: "Scotland", CovidAreaName: "Scotland", CovidAreaType: AreaTypeNation},
			17: {CarbonRegionName: "Wales", CovidAreaName: "Wales", CovidAreaType: AreaTypeNation},
		},
	}
}

// Resolve looks up the descriptor for a region id.
func (d *Directory) Resolve(id int) (Descriptor, error) {
	desc, ok := d.byID[id]
	if !ok {
		return Descriptor{}, ErrNotFound
	}
	return desc, nil
}

// Len returns the number of known regions.
func (d *Directory) Len() int {
	return len(d.byID)
}
