package imagemeta

// ToDecimal converts a degrees/minutes/seconds triplet to a signed decimal
// coordinate. "S" and "W" are negative; any other reference, including an
// unknown one, is treated as positive.
func ToDecimal(dms [3]float64, ref string) float64 {
	decimal := dms[0] + dms[1]/60 + dms[2]/3600
	if ref == "S" || ref == "W" {
		return -decimal
	}
	return decimal
}
