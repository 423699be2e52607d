// Package infra contém implementações concretas (infraestrutura) para os contratos
// definidos no pacote domain.
//
// Exemplos:
//   - HTMLDocument: DOM via golang.org/x/net/html + goquery
//   - SocialProofScript: o objeto js_socialproof_vars embutido num <script>
//   - TableHolder/FileTableSource/RedisTableSource: tabela de localidades
//   - MemoryStatsStore/RedisStatsStore/PrometheusStatsStore: estatísticas
//   - LogSink: diagnósticos em zap com throttling por x/time/rate
//   - ChanPool: semáforo simples para limitar reescritas simultâneas
package infra
