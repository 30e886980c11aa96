package vec

import "math"

// MinLength - минимальный знаменатель при нормализации.
// Защищает от деления на нулевую длину и появления NaN.
const MinLength = 1.0

// Vec2 представляет 2D координаты мира с плавающей точкой
type Vec2 struct {
	X, Y float64
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2) Mul(scalar float64) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Length возвращает длину вектора
func (v Vec2) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// DistanceTo вычисляет расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	return math.Hypot(v.X-other.X, v.Y-other.Y)
}

// Normalized возвращает вектор, делённый на max(длина, MinLength).
// Для векторов короче MinLength результат короче единицы, но никогда не NaN.
func (v Vec2) Normalized() Vec2 {
	length := math.Max(v.Length(), MinLength)
	return Vec2{X: v.X / length, Y: v.Y / length}
}

// DirectionTo возвращает нормализованное направление от v к target
// и расстояние между точками.
func (v Vec2) DirectionTo(target Vec2) (Vec2, float64) {
	delta := target.Sub(v)
	return delta.Normalized(), delta.Length()
}

// ClampLength ограничивает длину вектора значением max
func (v Vec2) ClampLength(max float64) Vec2 {
	length := v.Length()
	if max <= 0 {
		return Vec2{}
	}
	if length <= max {
		return v
	}
	return v.Mul(max / length)
}

// FromAngle возвращает единичный вектор для угла в радианах
func FromAngle(angle float64) Vec2 {
	return Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
}

// IsZero проверяет, является ли вектор нулевым
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}
