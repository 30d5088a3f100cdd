package core

// Canonical field keys. These double as column names in the loads table.
const (
	KeyLoadNumber       = "load_number"
	KeyCustomerName     = "customer_name"
	KeyOriginCity       = "origin_city"
	KeyOriginState      = "origin_state"
	KeyOriginZip        = "origin_zip"
	KeyDestinationCity  = "destination_city"
	KeyDestinationState = "destination_state"
	KeyDestinationZip   = "destination_zip"
	KeyPickupDate       = "pickup_date"
	KeyDeliveryDate     = "delivery_date"
	KeyEquipmentType    = "equipment_type"
	KeyLoadType         = "load_type"
	KeySourceStatus     = "source_status"
	KeyCommodity        = "commodity"
	KeyWeightLbs        = "weight_lbs"
	KeyLengthFt         = "length_ft"
	KeyPieces           = "pieces"
	KeyMiles            = "miles"
	KeyTargetRate       = "target_rate"
	KeyFloorRate        = "floor_rate"
	KeyMaxRate          = "max_rate"
	KeyHazmat           = "hazmat"
	KeyTarpRequired     = "tarp_required"
	KeyTarpSize         = "tarp_size"
	KeyTempRequired     = "temp_required"
	KeyTempMinF         = "temp_min_f"
	KeyTempMaxF         = "temp_max_f"
	KeyNotes            = "notes"
)

// loadFields is the canonical schema. Order is significant: it is the
// tie-break order for column mapping and the order missing labels are reported.
var loadFields = []FieldSpec{
	{Key: KeyLoadNumber, Label: "Load #", Type: FieldText,
		Aliases: []string{"load number", "load #", "load no", "load id", "pro number", "pro #", "pro", "reference", "ref"}},
	{Key: KeyCustomerName, Label: "Customer", Type: FieldText,
		Aliases: []string{"customer name", "customer", "shipper name", "bill to", "client"}},
	{Key: KeyOriginCity, Label: "Origin City", Type: FieldText, Required: true,
		Aliases: []string{"origin city", "pickup city", "pick up city", "shipper city", "from city", "origin", "pickup", "pick up at"}},
	{Key: KeyOriginState, Label: "Origin State", Type: FieldText, Required: true,
		Aliases: []string{"origin state", "pickup state", "pick up state", "shipper state", "from state", "origin st", "pickup st"}},
	{Key: KeyOriginZip, Label: "Origin Zip", Type: FieldText,
		Aliases: []string{"origin zip", "pickup zip", "shipper zip", "from zip", "origin postal"}},
	{Key: KeyDestinationCity, Label: "Destination City", Type: FieldText, Required: true,
		Aliases: []string{"destination city", "dest city", "delivery city", "consignee city", "to city", "destination", "dest", "consignee"}},
	{Key: KeyDestinationState, Label: "Destination State", Type: FieldText, Required: true,
		Aliases: []string{"destination state", "dest state", "delivery state", "consignee state", "to state", "dest st"}},
	{Key: KeyDestinationZip, Label: "Destination Zip", Type: FieldText,
		Aliases: []string{"destination zip", "dest zip", "delivery zip", "consignee zip", "to zip"}},
	{Key: KeyPickupDate, Label: "Pickup Date", Type: FieldDate,
		Aliases: []string{"pickup date", "pick up date", "ship date", "ready date", "load date", "ready", "available"}},
	{Key: KeyDeliveryDate, Label: "Delivery Date", Type: FieldDate,
		Aliases: []string{"delivery date", "deliver date", "drop date", "due date", "delivery by"}},
	{Key: KeyEquipmentType, Label: "Equipment", Type: FieldText,
		Aliases: []string{"equipment type", "equipment", "trailer type", "trailer", "equip"}},
	{Key: KeyLoadType, Label: "Load Type", Type: FieldText,
		Aliases: []string{"load type", "mode", "ftl ltl"}},
	{Key: KeySourceStatus, Label: "Status", Type: FieldText,
		Aliases: []string{"status", "load status"}},
	{Key: KeyCommodity, Label: "Commodity", Type: FieldText,
		Aliases: []string{"commodity", "product", "description", "material"}},
	{Key: KeyWeightLbs, Label: "Weight (lbs)", Type: FieldNumeric,
		Aliases: []string{"weight lbs", "weight", "lbs", "wt"}},
	{Key: KeyLengthFt, Label: "Length (ft)", Type: FieldNumeric,
		Aliases: []string{"length ft", "length", "footage", "feet"}},
	{Key: KeyPieces, Label: "Pieces", Type: FieldNumeric,
		Aliases: []string{"pieces", "piece count", "pcs", "pallets", "qty"}},
	{Key: KeyMiles, Label: "Miles", Type: FieldNumeric,
		Aliases: []string{"miles", "mileage", "distance"}},
	{Key: KeyTargetRate, Label: "Target Rate", Type: FieldNumeric,
		Aliases: []string{"target rate", "target pay", "carrier rate", "target", "rate"}},
	{Key: KeyFloorRate, Label: "Floor Rate", Type: FieldNumeric,
		Aliases: []string{"floor rate", "customer rate", "min rate", "floor", "revenue", "invoice"}},
	{Key: KeyMaxRate, Label: "Max Rate", Type: FieldNumeric,
		Aliases: []string{"max rate", "max pay", "ceiling", "max"}},
	{Key: KeyHazmat, Label: "Hazmat", Type: FieldBool,
		Aliases: []string{"hazmat", "hazardous", "haz"}},
	{Key: KeyTarpRequired, Label: "Tarp Required", Type: FieldBool,
		Aliases: []string{"tarp required", "tarps", "tarped"}},
	{Key: KeyTarpSize, Label: "Tarp Size", Type: FieldText,
		Aliases: []string{"tarp size", "tarp"}},
	{Key: KeyTempRequired, Label: "Temp Required", Type: FieldBool,
		Aliases: []string{"temp required", "temp control", "reefer", "temperature required"}},
	{Key: KeyTempMinF, Label: "Temp Min (F)", Type: FieldNumeric,
		Aliases: []string{"temp min", "min temp", "temperature min", "low temp"}},
	{Key: KeyTempMaxF, Label: "Temp Max (F)", Type: FieldNumeric,
		Aliases: []string{"temp max", "max temp", "temperature max", "high temp"}},
	{Key: KeyNotes, Label: "Notes", Type: FieldText,
		Aliases: []string{"notes", "comments", "instructions", "remarks", "special"}},
}

var fieldIndex = func() map[string]int {
	idx := make(map[string]int, len(loadFields))
	for i, f := range loadFields {
		idx[f.Key] = i
	}
	return idx
}()

// Fields returns a copy of the canonical schema in declaration order.
func Fields() []FieldSpec {
	out := make([]FieldSpec, len(loadFields))
	copy(out, loadFields)
	return out
}

// FieldByKey looks up a canonical field.
func FieldByKey(key string) (FieldSpec, bool) {
	i, ok := fieldIndex[key]
	if !ok {
		return FieldSpec{}, false
	}
	return loadFields[i], true
}

// FieldKeys returns the canonical keys in declaration order.
func FieldKeys() []string {
	keys := make([]string, len(loadFields))
	for i, f := range loadFields {
		keys[i] = f.Key
	}
	return keys
}
