// Package constant holds the static SRT code tables. The tables are
// plain read-only maps injected into the clients at startup so that the
// rest of the code never reaches for package-level mutable state.
package constant

// Tables maps the raw SRT wire codes to human-readable names and back.
// A zero value is unusable; construct one with Default() or load a
// custom set for another operator.
//
// Fields:
//  StationCode   – station name -> 4 digit station code.
//  StationName   – station code -> station name (inverse of StationCode).
//  TrainName     – train classification code -> train type name.
//  SeatType      – seat class code -> seat class name.
//  PassengerType – discount kind code -> passenger type name.
type Tables struct {
	StationCode   map[string]string
	StationName   map[string]string
	TrainName     map[string]string
	SeatType      map[string]string
	PassengerType map[string]string
}

// Unknown is returned by the lookup helpers when a code has no entry.
const Unknown = "알 수 없음"

// LookupStationName resolves a station code, falling back to Unknown.
func (t Tables) LookupStationName(code string) string {
	if n, ok := t.StationName[code]; ok {
		return n
	}
	return Unknown
}

// LookupStationCode resolves a station name to its wire code. The second
// return value reports whether the station exists; callers must treat a
// missing station as a hard input error, not as a retryable condition.
func (t Tables) LookupStationCode(name string) (string, bool) {
	c, ok := t.StationCode[name]
	return c, ok
}

// LookupTrainName resolves a train classification code, falling back to
// Unknown.
func (t Tables) LookupTrainName(code string) string {
	if n, ok := t.TrainName[code]; ok {
		return n
	}
	return Unknown
}

// LookupSeatType resolves a seat class code. Missing codes yield "".
func (t Tables) LookupSeatType(code string) string { return t.SeatType[code] }

// LookupPassengerType resolves a discount kind code. Missing codes yield "".
func (t Tables) LookupPassengerType(code string) string { return t.PassengerType[code] }

// Default returns the SRT code tables. StationName is derived from
// StationCode so the two can never drift apart.
func Default() Tables {
	stationCode := map[string]string{
		"수서":      "0551",
		"동탄":      "0552",
		"평택지제":    "0553",
		"경주":      "0508",
		"곡성":      "0049",
		"공주":      "0514",
		"광주송정":    "0036",
		"구례구":     "0050",
		"김천(구미)":  "0507",
		"나주":      "0037",
		"남원":      "0048",
		"대전":      "0010",
		"동대구":     "0015",
		"마산":      "0059",
		"목포":      "0041",
		"밀양":      "0017",
		"부산":      "0020",
		"서대구":     "0506",
		"순천":      "0051",
		"여수EXPO":  "0053",
		"여천":      "0139",
		"오송":      "0297",
		"울산(통도사)": "0509",
		"익산":      "0030",
		"전주":      "0045",
		"정읍":      "0033",
		"진영":      "0056",
		"진주":      "0063",
		"창원":      "0057",
		"창원중앙":    "0512",
		"천안아산":    "0502",
		"포항":      "0515",
	}
	stationName := make(map[string]string, len(stationCode))
	for name, code := range stationCode {
		stationName[code] = name
	}
	return Tables{
		StationCode: stationCode,
		StationName: stationName,
		TrainName: map[string]string{
			"00": "KTX",
			"02": "무궁화",
			"03": "통근열차",
			"04": "누리로",
			"05": "전체",
			"07": "KTX-산천",
			"08": "ITX-새마을",
			"09": "ITX-청춘",
			"10": "KTX-산천",
			"17": "SRT",
			"18": "ITX-마음",
		},
		SeatType: map[string]string{
			"1": "일반실",
			"2": "특실",
		},
		PassengerType: map[string]string{
			"1": "어른/청소년",
			"2": "장애 1~3급",
			"3": "장애 4~6급",
			"4": "경로",
			"5": "어린이",
		},
	}
}
