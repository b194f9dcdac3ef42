package schema

// Names of the default catalog tables
const (
	Sentinel1Table  = "sentinel1data"
	Sentinel2Table  = "sentinel2data"
	DuplicatesTable = "duplicates"
	ExistingS1Table = "existings1"
	ExistingS2Table = "existings2"
)

func pk(name string) Column { return Column{Name: name, Type: Text, PrimaryKey: true} }
func text(name string) Column { return Column{Name: name, Type: Text} }
func integer(name string) Column { return Column{Name: name, Type: Integer} }
func float(name string) Column { return Column{Name: name, Type: Float} }
func timestamp(name string) Column { return Column{Name: name, Type: Timestamp} }
func polygon(name string) Column { return Column{Name: name, Type: Polygon} }

// Sentinel1 is the layout of the SAR scene table
var Sentinel1 = Table{
	Name: Sentinel1Table,
	Columns: []Column{
		text("sensor"),
		text("orbit"),
		integer("orbitnumber_abs"),
		integer("orbitnumber_rel"),
		integer("cyclenumber"),
		integer("framenumber"),
		text("acquisition_mode"),
		text("start"),
		text("stop"),
		text("product"),
		integer("samples"),
		integer("lines"),
		text("outname_base"),
		pk("scene"),
		integer("hh"),
		integer("vv"),
		integer("hv"),
		integer("vh"),
		polygon("bbox"),
		polygon("geometry"),
	},
}

// Sentinel2 is the layout of the optical scene table. Apart from scene and
// outname_base, columns are named after the product metadata keys.
var Sentinel2 = Table{
	Name: Sentinel2Table,
	Columns: []Column{
		text("outname_base"),
		pk("scene"),
		float("aot_quantification_value"),
		text("aot_quantification_value_unit"),
		float("aot_retrieval_accuracy"),
		integer("boa_quantification_value"),
		text("boa_quantification_value_unit"),
		float("cloud_coverage_assessment"),
		float("cloud_shadow_percentage"),
		float("dark_features_percentage"),
		timestamp("datatake_1_datatake_sensing_start"),
		text("datatake_1_datatake_type"),
		text("datatake_1_id"),
		text("datatake_1_sensing_orbit_direction"),
		integer("datatake_1_sensing_orbit_number"),
		text("datatake_1_spacecraft_name"),
		float("degraded_anc_data_percentage"),
		float("degraded_msi_data_percentage"),
		polygon("footprint"),
		text("format_correctness"),
		text("general_quality"),
		timestamp("generation_time"),
		text("geometric_quality"),
		float("high_proba_clouds_percentage"),
		float("medium_proba_clouds_percentage"),
		float("nodata_pixel_percentage"),
		float("not_vegetated_percentage"),
		text("preview_geo_info"),
		text("preview_image_url"),
		float("processing_baseline"),
		text("processing_level"),
		timestamp("product_start_time"),
		timestamp("product_stop_time"),
		text("product_type"),
		text("product_uri"),
		float("radiative_transfer_accuracy"),
		text("radiometric_quality"),
		float("reflectance_conversion_u"),
		float("saturated_defective_pixel_percentage"),
		text("sensor_quality"),
		float("snow_ice_percentage"),
		integer("special_value_nodata"),
		integer("special_value_saturated"),
		float("thin_cirrus_percentage"),
		float("unclassified_percentage"),
		float("vegetation_percentage"),
		float("water_percentage"),
		float("water_vapour_retrieval_accuracy"),
		float("wvp_quantification_value"),
		text("wvp_quantification_value_unit"),
	},
}

// Duplicates records scenes whose outname_base is already cataloged elsewhere
var Duplicates = Table{
	Name: DuplicatesTable,
	Columns: []Column{
		pk("scene"),
		text("outname_base"),
	},
}

func inventory(name string) Table {
	return Table{
		Name: name,
		Columns: []Column{
			pk("scene"),
			text("outname_base"),
			integer("read_permission"),
			integer("file_size_mb"),
			text("owner"),
		},
	}
}

// ExistingS1 is the on-disk inventory of SAR archives
var ExistingS1 = inventory(ExistingS1Table)

// ExistingS2 is the on-disk inventory of optical archives
var ExistingS2 = inventory(ExistingS2Table)

// Default returns a fresh registry holding the standard catalog tables
func Default() *Registry {
	return NewRegistry(Sentinel1, Sentinel2, Duplicates, ExistingS1, ExistingS2)
}
