// Package face は顔特徴ベクトルの照合を行う。
// ベクトル自体は外部エンコーダ（encoder.go）が生成する。
package face

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// 合成距離がこれ未満の候補だけを一致とみなす
	MatchThreshold = 0.3
	// 信頼度 = 1 - 合成距離
	MinimumConfidence = 0.7
	// なりすまし対策の上乗せ（MinimumConfidence + ConfidenceMargin 未満は拒否）
	ConfidenceMargin = 0.15
	// 記録直前の最終チェック（MinimumConfidence + FinalCheckMargin を超えること）
	FinalCheckMargin = 0.1

	// 低品質（真っ黒な画像など）判定用の分散下限
	MinProbeVariance  = 0.001
	MinEnrollVariance = 0.005
)

var (
	ErrInvalidEncoding    = errors.New("invalid face encoding")
	ErrLowQuality         = errors.New("low quality face encoding")
	ErrUnregistered       = errors.New("unregistered face")
	ErrInsufficientMargin = errors.New("insufficient confidence margin")
	ErrNotRecognized      = errors.New("face not recognized")
)

// Candidate: 照合対象の登録済みベクトル
type Candidate struct {
	ID       uint64
	Name     string
	Encoding []float64
}

// Match: 閾値を下回った最良候補
type Match struct {
	Candidate  Candidate
	Distance   float64
	Confidence float64
}

// ValidateEncoding: 空・非有限値・低分散のベクトルを弾く
func ValidateEncoding(v []float64, minVariance float64) error {
	if len(v) == 0 {
		return ErrInvalidEncoding
	}
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ErrInvalidEncoding
		}
	}
	if stat.PopVariance(v, nil) < minVariance {
		return ErrLowQuality
	}
	return nil
}

// CombinedDistance: ユークリッド距離とコサイン距離の平均。
// 長さが違う場合は短い方に合わせる。
func CombinedDistance(a, b []float64) float64 {
	n := min(len(a), len(b))
	a, b = a[:n], b[:n]

	euclidean := floats.Distance(a, b, 2)
	cosine := 1 - floats.Dot(a, b)/(floats.Norm(a, 2)*floats.Norm(b, 2))
	return (euclidean + cosine) / 2
}

// Best: 閾値未満で最も近い候補を返す。該当なしは ErrUnregistered。
func Best(probe []float64, candidates []Candidate) (Match, error) {
	best := -1
	bestDistance := math.Inf(1)
	for i, c := range candidates {
		if len(c.Encoding) == 0 {
			continue
		}
		d := CombinedDistance(probe, c.Encoding)
		// NaN（ノルム0など）は比較が常に false になるので自然に除外される
		if d < MatchThreshold && d < bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return Match{}, ErrUnregistered
	}
	return Match{
		Candidate:  candidates[best],
		Distance:   bestDistance,
		Confidence: 1 - bestDistance,
	}, nil
}

// CheckConfidence: 余裕を持った信頼度があるか
func CheckConfidence(confidence float64) error {
	// 境界値 0.85 ちょうどは拒否。NaN もここで落ちる
	if !(confidence > MinimumConfidence+ConfidenceMargin) {
		return ErrInsufficientMargin
	}
	if confidence < MinimumConfidence {
		return ErrNotRecognized
	}
	return nil
}

// Identify: Best + CheckConfidence。信頼度不足でも Match は埋めて返す。
func Identify(probe []float64, candidates []Candidate) (Match, error) {
	m, err := Best(probe, candidates)
	if err != nil {
		return m, err
	}
	return m, CheckConfidence(m.Confidence)
}

// Verified: 記録直前の最終確認
func Verified(confidence float64) bool {
	return confidence > MinimumConfidence+FinalCheckMargin
}

// Round3: レスポンス・保存用に小数3桁へ丸める
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
