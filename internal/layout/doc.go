// Package layout превращает разрешённый граф шагов в координаты
// для отрисовки flowchart-превью.
//
// Раскладка — чистая детерминированная функция списка шагов и рёбер:
// одинаковый вход всегда даёт идентичные позиции, коннекторы и габариты
// холста. Это позволяет серверу и клиенту считать layout независимо
// и получать одинаковую картинку.
package layout
