package registry

// defaultFacilities is the source of truth for mapping facility names to
// their Ticos organization ids. The ids were discovered by inspecting network
// traffic on https://www.swm.de/baeder/auslastung.
//
// Maintenance:
//   - Add new facilities when discovered (the monitor flags unknown names).
//   - Never delete entries; an obsolete facility simply returns no data and
//     gets marked inactive here.
//   - Names must match exactly what appears on the SWM website.
//
// Last reviewed: 2026-01-19
var defaultFacilities = []Facility{
	// Pools
	{Name: "Bad Giesing-Harlaching", Type: TypePool, OrganizationID: 30195, Active: true},
	{Name: "Cosimawellenbad", Type: TypePool, OrganizationID: 30190, Active: true},
	{Name: "Dante-Winter-Warmfreibad", Type: TypePool, OrganizationID: 129, Active: true},
	{Name: "Michaelibad", Type: TypePool, OrganizationID: 30208, Active: true},
	{Name: "Müller'sches Volksbad", Type: TypePool, OrganizationID: 30197, Active: true},
	{Name: "Nordbad", Type: TypePool, OrganizationID: 30184, Active: true},
	{Name: "Olympia-Schwimmhalle", Type: TypePool, OrganizationID: 30182, Active: true},
	{Name: "Südbad", Type: TypePool, OrganizationID: 30187, Active: true},
	{Name: "Westbad", Type: TypePool, OrganizationID: 30199, Active: true},

	// Saunas
	{Name: "Cosimawellenbad", Type: TypeSauna, OrganizationID: 30191, Active: true},
	{Name: "Dantebad", Type: TypeSauna, OrganizationID: 30200, Active: true},
	{Name: "Michaelibad", Type: TypeSauna, OrganizationID: 30203, Active: true},
	{Name: "Müller'sches Volksbad", Type: TypeSauna, OrganizationID: 30204, Active: true},
	{Name: "Nordbad", Type: TypeSauna, OrganizationID: 30185, Active: true},
	{Name: "Südbad", Type: TypeSauna, OrganizationID: 30188, Active: true},
	{Name: "Westbad", Type: TypeSauna, OrganizationID: 30207, Active: true},

	// Ice rinks
	{Name: "Prinzregentenstadion - Eislaufbahn", Type: TypeIceRink, OrganizationID: 30356, Active: true},
}
